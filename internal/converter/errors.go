package converter

import (
	"fmt"
	"net/http"
	"time"
)

// Code classifies conversion failures.
type Code string

const (
	CodeMissingCredential     Code = "MissingCredential"
	CodeEmptyInput            Code = "EmptyInput"
	CodeProviderQuotaExceeded Code = "ProviderQuotaExceeded"
	CodeProviderAuthInvalid   Code = "ProviderAuthInvalid"
	CodeProviderRateLimited   Code = "ProviderRateLimited"
	CodeProviderGeneric       Code = "ProviderGeneric"
)

// Error is returned by Service.Convert. Message is safe to show to clients.
type Error struct {
	Code    Code
	Message string
	// Elapsed is the time spent before the failure, zero when the provider
	// was never called.
	Elapsed time.Duration
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status the error maps to.
func (e *Error) Status() int {
	if e.Code == CodeEmptyInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ValidationError rejects a request before any conversion work starts.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
