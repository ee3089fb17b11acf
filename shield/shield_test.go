package shield

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Method", r.Method)
	w.Write([]byte("ok"))
})

func serve(h http.Handler, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(SecurityHeaders(DefaultHeaders())(okHandler), http.MethodGet, "/", "")
	for name, want := range map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "no-referrer",
		"Cross-Origin-Resource-Policy": "same-origin",
	} {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s: got %q, want %q", name, got, want)
		}
	}

	rec = serve(SecurityHeaders(HeaderConfig{FrameOptions: "SAMEORIGIN"})(okHandler), http.MethodGet, "/", "")
	if rec.Header().Get("X-Frame-Options") != "SAMEORIGIN" || rec.Header().Get("Content-Security-Policy") != "" {
		t.Fatalf("custom: %v", rec.Header())
	}
}

func TestHeadToGet(t *testing.T) {
	rec := serve(HeadToGet(okHandler), http.MethodHead, "/", "")
	if rec.Header().Get("X-Method") != http.MethodGet {
		t.Fatalf("method seen by handler: %q", rec.Header().Get("X-Method"))
	}
}

func TestNewRateLimiter_Disabled(t *testing.T) {
	if NewRateLimiter(RateLimit{}, nil) != nil {
		t.Fatal("zero budget must disable the limiter")
	}
	if got := len(Stack(DefaultHeaders(), nil)); got != 2 {
		t.Fatalf("stack without limiter: %d", got)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimit{Requests: 2, Window: time.Minute}, nil)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("a"); !ok {
			t.Fatalf("request %d denied", i)
		}
	}
	ok, wait := rl.Allow("a")
	if ok || wait != time.Minute {
		t.Fatalf("third: %v %v", ok, wait)
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Fatal("other clients have their own budget")
	}

	now = now.Add(time.Minute + time.Second)
	if ok, _ := rl.Allow("a"); !ok {
		t.Fatal("window did not reset")
	}
	rl.mu.Lock()
	n := len(rl.buckets)
	rl.mu.Unlock()
	if n != 1 {
		t.Fatalf("expired buckets not swept: %d", n)
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimit{Requests: 1, Window: 30 * time.Second, Exclude: []string{"/health"}}, nil)
	h := rl.Middleware(okHandler)

	if rec := serve(h, http.MethodGet, "/api/v1/document", "10.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("first: %d", rec.Code)
	}
	rec := serve(h, http.MethodGet, "/api/v1/document", "10.0.0.1:5678")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("headers: %v", rec.Header())
	}
	for i := 0; i < 3; i++ {
		if rec := serve(h, http.MethodGet, "/health", "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("excluded path limited: %d", rec.Code)
		}
	}
}

func TestExtractIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := ExtractIP(req, false); got != "192.0.2.7" {
		t.Fatalf("untrusted: %q", got)
	}
	if got := ExtractIP(req, true); got != "203.0.113.9" {
		t.Fatalf("trusted: %q", got)
	}
	req.RemoteAddr = "pipe"
	req.Header.Del("X-Forwarded-For")
	if got := ExtractIP(req, true); got != "pipe" {
		t.Fatalf("bare addr: %q", got)
	}
}
