// Package urilimiter rejects requests whose URI exceeds a configured
// length before any routing or resolution work happens.
package urilimiter

import (
	"net/http"
)

// NewMiddleware wraps handler with the limit check. A limit of zero
// disables the check entirely.
func NewMiddleware(handler http.Handler, limit int) http.Handler {
	if limit == 0 {
		return handler
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.RequestURI) > limit {
			http.Error(w, "request URI too long", http.StatusRequestURITooLong)
			return
		}

		handler.ServeHTTP(w, r)
	})
}
