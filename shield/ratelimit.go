package shield

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimit is a fixed-window budget per client address.
//
//	rate_limit:
//	  requests: 120
//	  window: 1m
//	  exclude: [/health]
type RateLimit struct {
	// Requests per Window; zero disables limiting.
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	// TrustProxy keys clients by the first X-Forwarded-For address.
	TrustProxy bool `yaml:"trust_proxy"`
	// Exclude lists path prefixes that are never limited.
	Exclude []string `yaml:"exclude"`
}

type bucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter enforces a RateLimit in memory. Expired windows are swept
// once per window.
type RateLimiter struct {
	cfg RateLimit
	log *slog.Logger
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	sweepAt time.Time
}

// NewRateLimiter returns nil when cfg.Requests is not positive. Window
// defaults to one minute.
func NewRateLimiter(cfg RateLimit, logger *slog.Logger) *RateLimiter {
	if cfg.Requests <= 0 {
		return nil
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		cfg:     cfg,
		log:     logger,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow counts one request for key. When the budget is spent it returns
// false and the time until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.sweepAt) {
		for k, b := range rl.buckets {
			if now.After(b.resetAt) {
				delete(rl.buckets, k)
			}
		}
		rl.sweepAt = now.Add(rl.cfg.Window)
	}

	b, ok := rl.buckets[key]
	if !ok || now.After(b.resetAt) {
		rl.buckets[key] = &bucket{count: 1, resetAt: now.Add(rl.cfg.Window)}
		return true, 0
	}
	if b.count >= rl.cfg.Requests {
		return false, b.resetAt.Sub(now)
	}
	b.count++
	return true, 0
}

// Middleware answers 429 with a JSON error and Retry-After once a client
// exceeds its budget.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.cfg.Exclude {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}
		ip := ExtractIP(r, rl.cfg.TrustProxy)
		ok, wait := rl.Allow(ip)
		if ok {
			next.ServeHTTP(w, r)
			return
		}
		rl.log.Warn("shield: rate limited", "ip", ip, "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
	})
}

// ExtractIP returns the client address. X-Forwarded-For is honoured only
// when trustProxy is set.
func ExtractIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
