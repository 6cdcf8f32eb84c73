package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware wraps an http.Handler and checks the caller's key, taken
// from "Authorization: Bearer <key>" or the X-API-Key header.
// If apiKey is empty, the middleware passes all requests through (auth disabled).
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-API-Key")
		if auth := r.Header.Get("Authorization"); token == "" && auth != "" {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
		if token == "" {
			http.Error(w, "missing credentials", http.StatusUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			http.Error(w, "invalid credentials", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
