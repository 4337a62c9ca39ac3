// Package converter orchestrates TypeScript to AdvPL conversions against
// an OpenAI-compatible provider.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pysugar/code-converter/internal/logging"
	"github.com/pysugar/code-converter/internal/observability"
	"github.com/pysugar/code-converter/internal/upstream/openaicompat"
	"github.com/pysugar/code-converter/internal/util"
)

// Translator is the provider capability the service depends on.
type Translator interface {
	IsEnabled() bool
	Complete(ctx context.Context, req openaicompat.ChatRequest) (*openaicompat.ChatResult, error)
}

type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Metrics     *observability.Metrics
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// Result is a successful conversion.
type Result struct {
	Text  string
	Model string
	// Tokens is nil when the provider did not report usage.
	Tokens  *int
	Elapsed time.Duration
}

type Service struct {
	translator Translator
	opts       Options
}

func NewService(t Translator, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{translator: t, opts: opts}
}

// Model is the configured model id.
func (s *Service) Model() string { return s.opts.Model }

// Convert translates sourceText. Failures are always *Error.
func (s *Service) Convert(ctx context.Context, sourceText string) (*Result, error) {
	if s.translator == nil || !s.translator.IsEnabled() {
		return nil, &Error{Code: CodeMissingCredential, Message: "OPENAI_API_KEY is not configured"}
	}
	if strings.TrimSpace(sourceText) == "" {
		return nil, &Error{Code: CodeEmptyInput, Message: "Source code must not be empty"}
	}

	logging.Infof(ctx, "[Converter] 🔄 Starting conversion, %d characters: %s",
		util.RuneLen(sourceText), util.Preview(sourceText))

	temperature := s.opts.Temperature
	start := s.opts.Now()
	completion, err := s.translator.Complete(ctx, openaicompat.ChatRequest{
		Model: s.opts.Model,
		Messages: []openaicompat.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(sourceText)},
		},
		Temperature: &temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
	elapsed := s.opts.Now().Sub(start)

	if err != nil {
		convErr := classify(ctx, err)
		convErr.Elapsed = elapsed
		s.opts.Metrics.ObserveConversion(elapsed, 0, string(convErr.Code))
		logging.Errorf(ctx, "[Converter] ❌ Provider call failed after %v: %v", elapsed, err)
		return nil, convErr
	}
	if completion == nil || strings.TrimSpace(completion.Content) == "" {
		s.opts.Metrics.ObserveConversion(elapsed, 0, string(CodeProviderGeneric))
		logging.Errorf(ctx, "[Converter] ❌ Provider returned an empty response after %v", elapsed)
		return nil, &Error{
			Code:    CodeProviderGeneric,
			Message: "Conversion failed: empty response from provider",
			Elapsed: elapsed,
		}
	}

	result := &Result{
		Text:    completion.Content,
		Model:   s.opts.Model,
		Elapsed: elapsed,
	}
	tokens := 0
	if completion.TotalTokens != nil {
		v := *completion.TotalTokens
		result.Tokens = &v
		tokens = v
	}
	s.opts.Metrics.ObserveConversion(elapsed, tokens, "")
	logging.Infof(ctx, "[Converter] ✅ Conversion finished in %dms", elapsed.Milliseconds())
	return result, nil
}

// classify maps provider failures onto error codes. Raw provider payloads
// stay in Err and the logs, never in Message.
func classify(ctx context.Context, err error) *Error {
	var apiErr *openaicompat.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == "insufficient_quota":
			return &Error{Code: CodeProviderQuotaExceeded, Message: "Provider quota exhausted. Check your plan.", Err: err}
		case apiErr.Code == "invalid_api_key" || apiErr.Status == http.StatusUnauthorized:
			return &Error{Code: CodeProviderAuthInvalid, Message: "Invalid provider API key. Check the configuration.", Err: err}
		case apiErr.Code == "rate_limit_exceeded" || apiErr.Status == http.StatusTooManyRequests:
			return &Error{Code: CodeProviderRateLimited, Message: "Provider rate limit exceeded. Try again in a few minutes.", Err: err}
		}
		return &Error{
			Code:    CodeProviderGeneric,
			Message: fmt.Sprintf("Conversion failed: provider returned status %d", apiErr.Status),
			Err:     err,
		}
	}

	msg := "Conversion failed: provider unreachable"
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		msg = "Conversion failed: request cancelled"
	}
	return &Error{Code: CodeProviderGeneric, Message: msg, Err: err}
}

// Ping sends a tiny completion to check the provider is reachable.
func (s *Service) Ping(ctx context.Context) (time.Duration, error) {
	if s.translator == nil || !s.translator.IsEnabled() {
		return 0, &Error{Code: CodeMissingCredential, Message: "OPENAI_API_KEY is not configured"}
	}
	start := s.opts.Now()
	res, err := s.translator.Complete(ctx, openaicompat.ChatRequest{
		Model:     s.opts.Model,
		Messages:  []openaicompat.Message{{Role: "user", Content: pingPrompt}},
		MaxTokens: 10,
	})
	elapsed := s.opts.Now().Sub(start)
	if err != nil {
		log.Printf("[Converter] ⚠️ Provider ping failed: %v", err)
		return elapsed, err
	}
	if res == nil || res.Content == "" {
		return elapsed, errors.New("provider ping returned an empty response")
	}
	return elapsed, nil
}
