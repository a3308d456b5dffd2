package interfaces

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/annieworksdev-rgb/OurStack/internal/auth"
	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
)

type RecurringServiceInterface interface {
	GetAllRules(ctx context.Context, userID string) ([]domain.RecurringRule, error)
	CreateRule(ctx context.Context, rule *domain.RecurringRule) error
	UpdateRule(ctx context.Context, rule *domain.RecurringRule) error
	DeleteRule(ctx context.Context, userID, ruleID string) error
	ProcessDueOccurrences(ctx context.Context, userID string, now time.Time) (int, error)
}

type RecurringHandler struct {
	service      RecurringServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewRecurringHandler(
	service RecurringServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *RecurringHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		log.Fatal("Service and respond functions must not be nil")
		return nil
	}
	return &RecurringHandler{service: service, respondJSON: respondJSON, respondError: respondError}
}

func (h *RecurringHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rules, err := h.service.GetAllRules(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err, "Failed to get recurring rules")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   rules,
	})
}

func (h *RecurringHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var rule domain.RecurringRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule.UserID = userID
	if err := h.service.CreateRule(r.Context(), &rule); err != nil {
		respondServiceError(h.respondError, w, err, "Failed to create recurring rule")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Recurring rule successfully created.",
		"data":    rule,
	})
}

func (h *RecurringHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ruleID := r.PathValue("ruleID")
	if ruleID == "" {
		h.respondError(w, http.StatusBadRequest, "Rule ID is required")
		return
	}

	var rule domain.RecurringRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule.ID = ruleID
	rule.UserID = userID
	if err := h.service.UpdateRule(r.Context(), &rule); err != nil {
		respondServiceError(h.respondError, w, err, "Failed to update recurring rule")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Recurring rule successfully updated.",
		"data":    rule,
	})
}

func (h *RecurringHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ruleID := r.PathValue("ruleID")
	if ruleID == "" {
		h.respondError(w, http.StatusBadRequest, "Rule ID is required")
		return
	}

	if err := h.service.DeleteRule(r.Context(), userID, ruleID); err != nil {
		respondServiceError(h.respondError, w, err, "Failed to delete recurring rule")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Recurring rule successfully deleted.",
	})
}

// RunScheduler triggers materialization for the caller immediately instead of
// waiting for the next cron tick. Safe to call repeatedly; replays create
// nothing new.
func (h *RecurringHandler) RunScheduler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	created, err := h.service.ProcessDueOccurrences(r.Context(), userID, time.Now().UTC())
	if err != nil {
		respondServiceError(h.respondError, w, err, "Failed to run recurring scheduler")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Recurring rules processed.",
		"created": created,
	})
}
