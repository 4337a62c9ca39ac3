package handlers

import (
	"errors"
	"net/http"

	"github.com/pysugar/code-converter/internal/converter"
	"github.com/pysugar/code-converter/internal/db/models"
	"github.com/pysugar/code-converter/internal/history"
	"github.com/pysugar/code-converter/internal/logging"
	"github.com/pysugar/code-converter/internal/proxy/response"
	"github.com/pysugar/code-converter/internal/util"
)

type conversionMetadata struct {
	Model       string `json:"model"`
	Tokens      *int   `json:"tokens,omitempty"`
	ElapsedMs   int64  `json:"elapsedMs"`
	InputLength int    `json:"inputLength"`
}

type conversionResponse struct {
	Result        string             `json:"result"`
	ID            uint               `json:"id,omitempty"`
	HistoryQueued bool               `json:"historyQueued,omitempty"`
	Metadata      conversionMetadata `json:"metadata"`
}

// ConvertHandler handles POST /api/converter.
func ConvertHandler(svc *converter.Service, rec *history.Recorder, maxLen int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		r.Body = http.MaxBytesReader(w, r.Body, converter.MaxBodyBytes)

		req, err := converter.ParseRequest(r.Body, maxLen)
		if err != nil {
			var vErr *converter.ValidationError
			if errors.As(err, &vErr) {
				response.Error(w, http.StatusBadRequest, vErr.Message)
				return
			}
			response.Error(w, http.StatusBadRequest, "Invalid request")
			return
		}

		result, err := svc.Convert(ctx, req.SourceText)
		if err != nil {
			var convErr *converter.Error
			if errors.As(err, &convErr) {
				response.Error(w, convErr.Status(), convErr.Message)
				return
			}
			logging.Errorf(ctx, "[Converter] ❌ Unexpected error: %v", err)
			response.Error(w, http.StatusInternalServerError, "Internal conversion error")
			return
		}

		elapsedMs := result.Elapsed.Milliseconds()
		resp := conversionResponse{
			Result: result.Text,
			Metadata: conversionMetadata{
				Model:       result.Model,
				Tokens:      result.Tokens,
				ElapsedMs:   elapsedMs,
				InputLength: util.RuneLen(req.SourceText),
			},
		}

		if req.SaveHistory && rec != nil {
			id, ok := rec.Persist(ctx, &models.Conversion{
				SourceText: req.SourceText,
				Result:     result.Text,
				Model:      result.Model,
				Tokens:     result.Tokens,
				ElapsedMs:  &elapsedMs,
			})
			if rec.Sync() {
				resp.ID = id
			} else {
				resp.HistoryQueued = ok
			}
		}

		response.JSON(w, http.StatusOK, resp)
	}
}
