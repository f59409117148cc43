package api

import (
	"context"
	"net/http"
	"time"

	"github.com/erazemk/dealership/internal/apperr"
	"github.com/erazemk/dealership/internal/model"
)

// Authenticator registers and logs in dealers.
type Authenticator interface {
	Register(ctx context.Context, username, password string) (*model.Account, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Auth    Authenticator
	Revoked Revoker
}

type accountResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.Auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, accountResponse{
		ID:        account.ID,
		Username:  account.Username,
		CreatedAt: account.CreatedAt,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}

// Logout handles POST /auth/logout. The presented token stops working
// immediately; other tokens of the same dealer stay valid.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrAuthorization)
		return
	}

	if err := h.Revoked.Revoke(r.Context(), identity.TokenID, identity.ExpiresAt); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
