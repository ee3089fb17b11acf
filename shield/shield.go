// Package shield is the HTTP hardening stack for the semdom API: security
// headers, HEAD support on GET routes and per-client rate limiting.
//
//	r := chi.NewRouter()
//	for _, mw := range shield.Stack(shield.DefaultHeaders(), limiter) {
//	    r.Use(mw)
//	}
package shield

import "net/http"

// Stack returns the middleware in the order they should be applied. A nil
// limiter disables rate limiting.
func Stack(headers HeaderConfig, limiter *RateLimiter) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(headers),
	}
	if limiter != nil {
		stack = append(stack, limiter.Middleware)
	}
	return stack
}

// HeadToGet serves HEAD through routes registered for GET. net/http drops
// the body.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r2 := r.Clone(r.Context())
			r2.Method = http.MethodGet
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}
