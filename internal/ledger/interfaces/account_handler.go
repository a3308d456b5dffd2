package interfaces

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/annieworksdev-rgb/OurStack/internal/auth"
	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
)

type AccountServiceInterface interface {
	GetAllAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	GetActiveAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
	UpdateAccount(ctx context.Context, account *domain.Account) error
	ArchiveAccount(ctx context.Context, userID, accountID string) error
	DeleteAccount(ctx context.Context, userID, accountID string) error
}

type AccountHandler struct {
	service      AccountServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewAccountHandler(
	service AccountServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *AccountHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		log.Fatal("Service and respond functions must not be nil")
		return nil
	}
	return &AccountHandler{service: service, respondJSON: respondJSON, respondError: respondError}
}

// GetAccounts returns all accounts by default; ?active=true hides archived
// ones for pickers.
func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var accounts []domain.Account
	var err error
	if r.URL.Query().Get("active") == "true" {
		accounts, err = h.service.GetActiveAccounts(r.Context(), userID)
	} else {
		accounts, err = h.service.GetAllAccounts(r.Context(), userID)
	}
	if err != nil {
		respondServiceError(h.respondError, w, err, "Failed to get accounts")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   accounts,
	})
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var account domain.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account.UserID = userID
	if err := h.service.CreateAccount(r.Context(), &account); err != nil {
		respondServiceError(h.respondError, w, err, "Failed to create account")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Account successfully created.",
		"data":    account,
	})
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID := r.PathValue("accountID")
	if accountID == "" {
		h.respondError(w, http.StatusBadRequest, "Account ID is required")
		return
	}

	var account domain.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account.ID = accountID
	account.UserID = userID
	if err := h.service.UpdateAccount(r.Context(), &account); err != nil {
		respondServiceError(h.respondError, w, err, "Failed to update account")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Account successfully updated.",
		"data":    account,
	})
}

func (h *AccountHandler) ArchiveAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID := r.PathValue("accountID")
	if accountID == "" {
		h.respondError(w, http.StatusBadRequest, "Account ID is required")
		return
	}

	if err := h.service.ArchiveAccount(r.Context(), userID, accountID); err != nil {
		respondServiceError(h.respondError, w, err, "Failed to archive account")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Account successfully archived.",
	})
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID := r.PathValue("accountID")
	if accountID == "" {
		h.respondError(w, http.StatusBadRequest, "Account ID is required")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID, accountID); err != nil {
		respondServiceError(h.respondError, w, err, "Failed to delete account")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Account successfully deleted.",
	})
}
