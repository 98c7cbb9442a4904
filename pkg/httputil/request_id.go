package httputil

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const HeaderRequestID = "X-Request-ID"

// EchoRequestID returns the id assigned by middleware.RequestID to the client.
// It must run after middleware.RequestID.
func EchoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set(HeaderRequestID, reqID)
		}
		next.ServeHTTP(w, r)
	})
}
