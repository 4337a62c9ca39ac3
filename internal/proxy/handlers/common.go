// Package handlers implements the converter HTTP endpoints.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// parseID reads the numeric {id} URL parameter.
func parseID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryInt returns the integer query parameter key, or fallback when it is
// absent or not a number.
func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
