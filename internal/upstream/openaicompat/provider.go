// Package openaicompat is a minimal client for OpenAI-compatible
// chat/completions endpoints.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultTimeout  = 180 * time.Second
	maxResponseBody = 8 << 20
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// StaticHeaders are added to every upstream request.
	StaticHeaders map[string]string
}

// Provider sends chat completion requests upstream. The API key is
// injected as a bearer token by the transport.
type Provider struct {
	apiKey        string
	baseURL       string
	staticHeaders map[string]string
	httpClient    *http.Client
}

func NewProvider(cfg Config) *Provider {
	return NewProviderWithTransport(cfg, nil)
}

// NewProviderWithTransport uses base for the underlying round trips; nil
// means http.DefaultTransport.
func NewProviderWithTransport(cfg Config, base http.RoundTripper) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	headers := make(map[string]string, len(cfg.StaticHeaders))
	for k, v := range cfg.StaticHeaders {
		headers[k] = v
	}
	apiKey := strings.TrimSpace(cfg.APIKey)

	return &Provider{
		apiKey:        apiKey,
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		staticHeaders: headers,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}),
				Base:   base,
			},
		},
	}
}

// IsEnabled reports whether a credential and endpoint are configured.
func (p *Provider) IsEnabled() bool {
	return p != nil && p.baseURL != "" && p.apiKey != ""
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type ChatResult struct {
	Content      string
	Model        string
	FinishReason string
	// TotalTokens is nil when the upstream omitted usage.
	TotalTokens *int
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete performs one non-streaming chat completion. Upstream failures
// are returned as *APIError.
func (p *Provider) Complete(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if !p.IsEnabled() {
		return nil, fmt.Errorf("openai compat provider is not enabled")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range p.staticHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp, data)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	result := &ChatResult{Model: parsed.Model}
	if result.Model == "" {
		result.Model = req.Model
	}
	if len(parsed.Choices) > 0 {
		result.Content = parsed.Choices[0].Message.Content
		result.FinishReason = parsed.Choices[0].FinishReason
	}
	if parsed.Usage != nil {
		total := parsed.Usage.TotalTokens
		result.TotalTokens = &total
	}
	return result, nil
}

// APIError is a non-2xx upstream response.
type APIError struct {
	Status  int
	Code    string
	Type    string
	Message string
	// RetryAfter is the upstream's requested backoff, zero when absent.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("upstream error %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("upstream error %d: %s", e.Status, msg)
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func parseAPIError(resp *http.Response, data []byte) *APIError {
	apiErr := &APIError{
		Status:     resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Error.Message
		apiErr.Type = body.Error.Type
		switch code := body.Error.Code.(type) {
		case string:
			apiErr.Code = code
		case float64:
			apiErr.Code = strconv.FormatFloat(code, 'f', -1, 64)
		}
	}
	if apiErr.Code == "" && apiErr.Type != "" {
		// Some deployments only report the type, e.g. "insufficient_quota".
		apiErr.Code = apiErr.Type
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
		if len(apiErr.Message) > 512 {
			apiErr.Message = apiErr.Message[:512]
		}
	}
	return apiErr
}

// parseRetryAfter accepts delta seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
