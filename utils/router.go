package utils

import (
	"net/http"

	"github.com/gorilla/mux"
)

// CORS middleware allowing cross-origin reads from local/private origins.
// The API is read-only, so only GET and OPTIONS are offered.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && IsAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter constructs the base mux router with CORS applied; routes are
// registered by the individual handlers.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	return r
}
