package converter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// MaxBodyBytes caps request bodies before JSON decoding.
const MaxBodyBytes = 10 << 20

// Request is a validated conversion request.
type Request struct {
	SourceText  string
	SaveHistory bool
}

type requestBody struct {
	SourceText  *string `json:"sourceText"`
	SaveHistory *bool   `json:"saveHistory"`
}

// ParseRequest decodes and validates a conversion payload. sourceText must
// be present and non-blank and at most maxLen characters long.
// saveHistory defaults to true.
func ParseRequest(body io.Reader, maxLen int) (Request, error) {
	var raw requestBody
	dec := json.NewDecoder(body)
	if err := dec.Decode(&raw); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return Request{}, &ValidationError{Message: "Request body too large"}
		}
		return Request{}, &ValidationError{Message: "Invalid JSON body"}
	}

	if raw.SourceText == nil || strings.TrimSpace(*raw.SourceText) == "" {
		return Request{}, &ValidationError{Message: "sourceText is required"}
	}
	if maxLen > 0 && utf8.RuneCountInString(*raw.SourceText) > maxLen {
		return Request{}, &ValidationError{Message: fmt.Sprintf("Code too long. Maximum of %d characters.", maxLen)}
	}

	req := Request{SourceText: *raw.SourceText, SaveHistory: true}
	if raw.SaveHistory != nil {
		req.SaveHistory = *raw.SaveHistory
	}
	return req, nil
}
