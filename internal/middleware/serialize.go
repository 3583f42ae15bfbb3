package middleware

import (
	"net/http"
)

// SerializeMiddleware admits one request at a time into next, so every core
// operation runs to completion before the next one starts. A request whose
// context ends while waiting is answered with 503.
func SerializeMiddleware() func(http.Handler) http.Handler {
	turn := make(chan struct{}, 1)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case turn <- struct{}{}:
			case <-r.Context().Done():
				RespondWithError(w, http.StatusServiceUnavailable, "request cancelled while waiting")
				return
			}
			defer func() { <-turn }()

			next.ServeHTTP(w, r)
		})
	}
}
