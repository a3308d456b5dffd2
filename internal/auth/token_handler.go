package auth

import (
	"encoding/json"
	"net/http"
	"time"
)

// TokenHandler mints access tokens. There is no user registry; any non-empty
// user ID gets a token, which is enough for a household deployment behind a
// shared secret.
type TokenHandler struct {
	jwtManager JWTManagerInterface
}

func NewTokenHandler(jwtManager JWTManagerInterface) *TokenHandler {
	return &TokenHandler{jwtManager: jwtManager}
}

func (h *TokenHandler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	token, err := h.jwtManager.GenerateAccessJWT(req.UserID, 24*time.Hour)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "success",
		"token":  token,
	})
}
