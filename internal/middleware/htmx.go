package middleware

import (
	"net/http"
)

// HTMX records htmx request headers on the context. Every response varies
// on HX-Request since the same URL serves pages and fragments.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "HX-Request")
		if r.Header.Get("HX-Request") != "true" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := withHTMX(r.Context(), HTMXRequest{
			Boosted: r.Header.Get("HX-Boosted") == "true",
			Target:  r.Header.Get("HX-Target"),
			Trigger: r.Header.Get("HX-Trigger"),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
