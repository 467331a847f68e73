package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/andythehood/datatransformer-playground/internal/ratelimit"
)

// RateLimitMiddleware creates a middleware that enforces per-playground run limits
func RateLimitMiddleware(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playground := getPlayground(r)

			if playground == "" {
				// No playground, skip rate limiting
				next.ServeHTTP(w, r)
				return
			}

			limit := strconv.Itoa(limiter.PerMinute())

			if !limiter.Allow(playground) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-RateLimit-Limit", limit)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(http.StatusTooManyRequests)

				json.NewEncoder(w).Encode(map[string]string{
					"error": fmt.Sprintf("Rate limit exceeded. Maximum %s runs per minute per playground.", limit),
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens(playground))))

			next.ServeHTTP(w, r)
		})
	}
}

// getPlayground extracts the playground name from the request
func getPlayground(r *http.Request) string {
	if name := mux.Vars(r)["name"]; name != "" {
		return name
	}

	// Could also check custom header
	return r.Header.Get("X-Playground")
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Playground")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
