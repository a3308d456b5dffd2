package interfaces

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/annieworksdev-rgb/OurStack/internal/auth"
	"github.com/annieworksdev-rgb/OurStack/internal/ledger/application"
)

type BreakdownServiceInterface interface {
	GetMonthlyExpenseBreakdown(ctx context.Context, userID string, year int, month time.Month) ([]application.CategoryBreakdown, error)
}

type HistoryServiceInterface interface {
	GetAssetHistory(ctx context.Context, userID string, from, to time.Time) (map[string][]application.BalancePoint, error)
}

// ReportHandler serves the read-only analytics surface: the monthly expense
// pie and the reconstructed asset history.
type ReportHandler struct {
	breakdown    BreakdownServiceInterface
	history      HistoryServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewReportHandler(
	breakdown BreakdownServiceInterface,
	history HistoryServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *ReportHandler {
	if breakdown == nil || history == nil || respondJSON == nil || respondError == nil {
		log.Fatal("Services and respond functions must not be nil")
		return nil
	}
	return &ReportHandler{
		breakdown:    breakdown,
		history:      history,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

// GetMonthlyBreakdown defaults to the current month when year/month are absent.
func (h *ReportHandler) GetMonthlyBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	now := time.Now().UTC()
	year := now.Year()
	month := now.Month()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = parsed
	}
	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		parsed, err := strconv.Atoi(monthStr)
		if err != nil || parsed < 1 || parsed > 12 {
			h.respondError(w, http.StatusBadRequest, "Invalid month, expected 1..12")
			return
		}
		month = time.Month(parsed)
	}

	breakdown, err := h.breakdown.GetMonthlyExpenseBreakdown(r.Context(), userID, year, month)
	if err != nil {
		respondServiceError(h.respondError, w, err, "Failed to get monthly breakdown")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   breakdown,
	})
}

// GetAssetHistory reconstructs daily balances over ?from=YYYY-MM-DD&to=YYYY-MM-DD,
// defaulting to the last 30 days.
func (h *ReportHandler) GetAssetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		to = parsed
	}

	history, err := h.history.GetAssetHistory(r.Context(), userID, from, to)
	if err != nil {
		respondServiceError(h.respondError, w, err, "Failed to get asset history")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   history,
	})
}
