package middleware

import (
	"net/http"
	"strings"
)

var baseAllowHeaders = []string{"Content-Type", "Authorization", RequestIDHeader}

// EnableCORS answers preflight requests and reflects the caller's origin.
// extraHeaders are added to the allowed request headers, typically the
// identity header.
func EnableCORS(next http.Handler, extraHeaders ...string) http.Handler {
	allowHeaders := strings.Join(append(append([]string{}, baseAllowHeaders...), extraHeaders...), ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Accept any dynamic origin
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
