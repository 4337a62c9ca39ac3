package converter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pysugar/code-converter/internal/observability"
	"github.com/pysugar/code-converter/internal/upstream/openaicompat"
)

type fakeTranslator struct {
	enabled bool
	result  *openaicompat.ChatResult
	err     error

	mu       sync.Mutex
	requests []openaicompat.ChatRequest
}

func (f *fakeTranslator) IsEnabled() bool { return f.enabled }

func (f *fakeTranslator) Complete(_ context.Context, req openaicompat.ChatRequest) (*openaicompat.ChatResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.result, f.err
}

func (f *fakeTranslator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}

func intPtr(v int) *int { return &v }

func TestConvert_Success(t *testing.T) {
	tr := &fakeTranslator{enabled: true, result: &openaicompat.ChatResult{Content: "User Function Add(a, b)", TotalTokens: intPtr(42)}}
	metrics := observability.NewMetrics("test")
	svc := NewService(tr, Options{Model: "gpt-4", Temperature: 0.1, MaxTokens: 2048, Metrics: metrics, Now: steppingClock(250 * time.Millisecond)})

	res, err := svc.Convert(context.Background(), "function add(a,b){return a+b}")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.Text != "User Function Add(a, b)" || res.Model != "gpt-4" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Tokens == nil || *res.Tokens != 42 {
		t.Fatalf("Tokens = %v", res.Tokens)
	}
	if res.Elapsed != 250*time.Millisecond {
		t.Fatalf("Elapsed = %v", res.Elapsed)
	}

	req := tr.requests[0]
	if req.Model != "gpt-4" || req.MaxTokens != 2048 || req.Temperature == nil || *req.Temperature != 0.1 {
		t.Fatalf("unexpected provider request %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[0].Content != systemPrompt {
		t.Fatalf("expected system prompt first, got %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "function add(a,b){return a+b}") {
		t.Fatalf("user prompt does not embed source: %q", req.Messages[1].Content)
	}
	if got := testutil.ToFloat64(metrics.TokensUsed); got != 42 {
		t.Fatalf("tokens metric = %v", got)
	}
}

func TestConvert_MissingUsageLeavesTokensNil(t *testing.T) {
	tr := &fakeTranslator{enabled: true, result: &openaicompat.ChatResult{Content: "ok"}}
	res, err := NewService(tr, Options{Model: "gpt-4"}).Convert(context.Background(), "let x = 1")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.Tokens != nil {
		t.Fatalf("Tokens = %v, want nil", *res.Tokens)
	}
}

func TestConvert_PreconditionsSkipProvider(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		input   string
		want    Code
	}{
		{"missing credential", false, "let x = 1", CodeMissingCredential},
		{"empty input", true, "", CodeEmptyInput},
		{"blank input", true, " \n\t ", CodeEmptyInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTranslator{enabled: tt.enabled, result: &openaicompat.ChatResult{Content: "ok"}}
			_, err := NewService(tr, Options{Model: "gpt-4"}).Convert(context.Background(), tt.input)

			var convErr *Error
			if !errors.As(err, &convErr) || convErr.Code != tt.want {
				t.Fatalf("error = %v, want code %s", err, tt.want)
			}
			if tr.calls() != 0 {
				t.Fatal("provider must not be called")
			}
		})
	}
}

func TestConvert_EmptyContentIsProviderGeneric(t *testing.T) {
	tr := &fakeTranslator{enabled: true, result: &openaicompat.ChatResult{Content: "   ", TotalTokens: intPtr(3)}}
	svc := NewService(tr, Options{Model: "gpt-4", Now: steppingClock(time.Second)})

	_, err := svc.Convert(context.Background(), "let x = 1")
	var convErr *Error
	if !errors.As(err, &convErr) || convErr.Code != CodeProviderGeneric {
		t.Fatalf("error = %v, want ProviderGeneric", err)
	}
	if convErr.Elapsed != time.Second {
		t.Fatalf("Elapsed = %v", convErr.Elapsed)
	}
}

func TestConvert_MapsProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"quota", &openaicompat.APIError{Status: 429, Code: "insufficient_quota"}, CodeProviderQuotaExceeded},
		{"invalid key code", &openaicompat.APIError{Status: 400, Code: "invalid_api_key"}, CodeProviderAuthInvalid},
		{"unauthorized status", &openaicompat.APIError{Status: http.StatusUnauthorized}, CodeProviderAuthInvalid},
		{"rate limit code", &openaicompat.APIError{Status: 429, Code: "rate_limit_exceeded"}, CodeProviderRateLimited},
		{"too many requests status", &openaicompat.APIError{Status: http.StatusTooManyRequests}, CodeProviderRateLimited},
		{"server error", &openaicompat.APIError{Status: 500, Message: "secret upstream detail"}, CodeProviderGeneric},
		{"transport", errors.New("dial tcp: connection refused"), CodeProviderGeneric},
		{"cancelled", context.Canceled, CodeProviderGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetrics("test")
			tr := &fakeTranslator{enabled: true, err: tt.err}
			svc := NewService(tr, Options{Model: "gpt-4", Metrics: metrics, Now: steppingClock(2 * time.Second)})

			_, err := svc.Convert(context.Background(), "let x = 1")
			var convErr *Error
			if !errors.As(err, &convErr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if convErr.Code != tt.want {
				t.Fatalf("Code = %s, want %s", convErr.Code, tt.want)
			}
			if convErr.Elapsed != 2*time.Second {
				t.Fatalf("Elapsed = %v, want attached on failure", convErr.Elapsed)
			}
			if !errors.Is(err, tt.err) {
				t.Fatal("cause must be wrapped")
			}
			if strings.Contains(convErr.Message, "secret upstream detail") {
				t.Fatal("raw provider message leaked to client message")
			}
			if convErr.Status() != http.StatusInternalServerError {
				t.Fatalf("Status() = %d", convErr.Status())
			}
			if got := testutil.ToFloat64(metrics.ProviderErrors.WithLabelValues(string(tt.want))); got != 1 {
				t.Fatalf("provider error metric = %v", got)
			}
		})
	}
}

func TestPing(t *testing.T) {
	tr := &fakeTranslator{enabled: true, result: &openaicompat.ChatResult{Content: "pong"}}
	svc := NewService(tr, Options{Model: "gpt-4", Now: steppingClock(5 * time.Millisecond)})

	d, err := svc.Ping(context.Background())
	if err != nil || d != 5*time.Millisecond {
		t.Fatalf("Ping() = %v, %v", d, err)
	}
	if tr.requests[0].MaxTokens != 10 {
		t.Fatalf("ping MaxTokens = %d", tr.requests[0].MaxTokens)
	}

	tr.err = errors.New("down")
	if _, err := svc.Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure")
	}

	if _, err := NewService(&fakeTranslator{}, Options{}).Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure without credential")
	}
}
