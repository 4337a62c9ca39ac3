// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// TimestampLayout is RFC3339 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the body of every JSON response.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Path      string `json:"path,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Now is the clock used for envelope timestamps.
var Now = time.Now

func timestamp() string {
	return Now().UTC().Format(TimestampLayout)
}

// Write encodes env with the given status.
func Write(w http.ResponseWriter, status int, env Envelope) {
	if env.Timestamp == "" {
		env.Timestamp = timestamp()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("[HTTP] ⚠️ Failed to encode response: %v", err)
	}
}

// JSON writes a successful envelope carrying data.
func JSON(w http.ResponseWriter, status int, data any) {
	Write(w, status, Envelope{Success: true, Data: data})
}

// Message writes a successful envelope carrying only a message.
func Message(w http.ResponseWriter, status int, msg string) {
	Write(w, status, Envelope{Success: true, Message: msg})
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, Envelope{Success: false, Error: msg})
}

// NotFound is the router fallback for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusNotFound, Envelope{
		Success: false,
		Error:   "Route not found",
		Path:    r.URL.RequestURI(),
	})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusMethodNotAllowed, Envelope{
		Success: false,
		Error:   "Method " + r.Method + " not allowed",
		Path:    r.URL.RequestURI(),
	})
}
