package handlers

import (
	"net/http"

	"github.com/pysugar/code-converter/internal/proxy/response"
)

// RootHandler answers GET / with a service banner.
func RootHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{
			"message": "TS2AdvPL Converter API is running! 🚀",
			"version": version,
			"status":  "OK",
		})
	}
}
