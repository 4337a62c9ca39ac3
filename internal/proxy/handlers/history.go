package handlers

import (
	"errors"
	"net/http"

	"github.com/pysugar/code-converter/internal/db/models"
	"github.com/pysugar/code-converter/internal/history"
	"github.com/pysugar/code-converter/internal/logging"
	"github.com/pysugar/code-converter/internal/proxy/response"
)

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type historyPage struct {
	Conversions []models.Conversion `json:"conversions"`
	Pagination  pagination          `json:"pagination"`
}

// HistoryHandler handles GET /api/historico?page=&limit=.
func HistoryHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := history.NormalizePage(
			queryInt(r, "page", 1),
			queryInt(r, "limit", history.DefaultPageSize),
		)

		records, total, err := store.List(r.Context(), page, limit)
		if err != nil {
			logging.Errorf(r.Context(), "[History] ❌ Failed to list conversions: %v", err)
			response.Error(w, http.StatusInternalServerError, "Failed to fetch history")
			return
		}
		if records == nil {
			records = []models.Conversion{}
		}

		response.JSON(w, http.StatusOK, historyPage{
			Conversions: records,
			Pagination: pagination{
				Page:  page,
				Limit: limit,
				Total: total,
				Pages: history.Pages(total, limit),
			},
		})
	}
}

// GetConversionHandler handles GET /api/conversao/{id}.
func GetConversionHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "Invalid ID")
			return
		}

		record, err := store.Get(r.Context(), id)
		switch {
		case errors.Is(err, history.ErrNotFound):
			response.Error(w, http.StatusNotFound, "Conversion not found")
		case err != nil:
			logging.Errorf(r.Context(), "[History] ❌ Failed to fetch conversion %d: %v", id, err)
			response.Error(w, http.StatusInternalServerError, "Failed to fetch conversion")
		default:
			response.JSON(w, http.StatusOK, record)
		}
	}
}

// DeleteConversionHandler handles DELETE /api/conversao/{id}.
func DeleteConversionHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "Invalid ID")
			return
		}

		err := store.Delete(r.Context(), id)
		switch {
		case errors.Is(err, history.ErrNotFound):
			response.Error(w, http.StatusNotFound, "Conversion not found")
		case err != nil:
			logging.Errorf(r.Context(), "[History] ❌ Failed to delete conversion %d: %v", id, err)
			response.Error(w, http.StatusInternalServerError, "Failed to delete conversion")
		default:
			logging.Infof(r.Context(), "[History] 🗑️ Conversion %d removed", id)
			response.Message(w, http.StatusOK, "Conversion removed successfully")
		}
	}
}

// StatsHandler handles GET /api/stats.
func StatsHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Aggregate(r.Context(), history.RecentConversions)
		if err != nil {
			logging.Errorf(r.Context(), "[History] ❌ Failed to aggregate stats: %v", err)
			response.Error(w, http.StatusInternalServerError, "Failed to fetch statistics")
			return
		}
		if stats.LastConversions == nil {
			stats.LastConversions = []models.ConversionSummary{}
		}
		response.JSON(w, http.StatusOK, stats)
	}
}
