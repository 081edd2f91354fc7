package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/auth"
	"github.com/sakif/course-advisor/internal/service"
)

// AuthHandler exchanges email and password for an API token.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin  → check credentials, issue JWT, set the token cookie
//   - HandleLogout → clear the token cookie
type AuthHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts *service.AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// HandleLogin authenticates the caller.
//
// HTTP: POST /api/login {"email": "...", "password": "..."}
//
// The token is returned in the body for scripted clients and set as an
// HttpOnly cookie for browsers. Unknown email and wrong password both yield
// the same 401 so the endpoint cannot be used to discover which accounts exist.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrUnauthorized) {
			writeError(w, h.logger, apperror.Unauthorized("invalid email or password"))
			return
		}
		writeError(w, h.logger, err)
		return
	}

	token, err := h.accounts.IssueToken(*user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.DefaultTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, h.logger, http.StatusOK, loginResponse{Token: token})
}

// HandleLogout clears the token cookie. Tokens are stateless, so a bearer
// token stays valid until it expires.
//
// HTTP: POST /api/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
