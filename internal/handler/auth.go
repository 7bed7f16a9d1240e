package handler

import (
	"net/http"
	"strings"

	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/service"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{authService: authService}
}

type devTokenRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// DevToken signs a session for any user id. Only routed in development,
// where no identity provider is around.
func (h *authHandler) DevToken(w http.ResponseWriter, r *http.Request) {
	var req devTokenRequest
	err := decodeJSON(r, &req)
	if err != nil || strings.TrimSpace(req.UserID) == "" {
		writeBadRequest(w, "userId is required")
		return
	}

	token, expiry, err := h.authService.GenerateToken(&model.Identity{ID: req.UserID, Email: req.Email, Role: req.Role})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.authService.SetJWTCookie(w, token, expiry)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiry.Unix()})
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
