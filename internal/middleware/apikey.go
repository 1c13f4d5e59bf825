// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import "net/http"

// APIKey is a middleware that enforces caller authentication via a shared
// key in the X-API-Key header. Identity resolution proper happens upstream;
// this only keeps unregistered callers out.
//
// The /ping endpoint is excluded so load balancers can probe without
// credentials. When the configured key is empty the check is disabled, which
// is intended for local development only.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || r.URL.Path == "/ping" {
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get("X-API-Key") != key {
				http.Error(w, "missing or invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
