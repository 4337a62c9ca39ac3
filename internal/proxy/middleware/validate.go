package middleware

import (
	"net/http"
	"strings"

	"github.com/pysugar/code-converter/internal/proxy/response"
)

// RequireJSON rejects mutating requests whose Content-Type is not JSON.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
				response.Error(w, http.StatusBadRequest, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
