package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/geniuspost/internal/apperror"
	"github.com/sakif/geniuspost/internal/auth"
	"github.com/sakif/geniuspost/internal/service"
)

// AuthHandler manages the Google OAuth login flow and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin     → redirect the browser to Google's consent screen
//   - HandleAuthorize → receive the code, let AuthService log the user in,
//     set the cookie and continue to the original page
//   - HandleLogout    → clear the session cookie
//
// All decisions (state validation, user creation, token issuing) live in
// service.AuthService; this handler only speaks HTTP.
type AuthHandler struct {
	auth          *service.AuthService
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookies sets the Secure
// flag on the session cookie (true when served over HTTPS).
func NewAuthHandler(authService *service.AuthService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:          authService,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleLogin redirects to Google.
//
// HTTP: GET /login?next=/geniuspost
//
// The "next" target travels inside the signed state parameter, so no
// server-side storage or extra cookie is needed for the round trip.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	target, err := h.auth.LoginURL(r.URL.Query().Get("next"))
	if err != nil {
		h.logger.Error("login: building authorization URL failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandleAuthorize completes the OAuth flow.
//
// HTTP: GET /authorize?code=xxx&state=yyy
//
// FLOW:
//  1. Google reported an error (user denied consent) → back to the home page
//  2. No code → 400 "missing OAuth code"
//  3. AuthService.Callback validates state, exchanges the code, stores the
//     user and bumps the login counter → 400 text on auth failures
//  4. Set the session cookie and 303 to the page the user started from
func (h *AuthHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("authorize: provider returned an error", slog.String("error", errParam))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	result, err := h.auth.Callback(r.Context(), code, q.Get("state"))
	if err != nil {
		var appErr *apperror.AppError
		if errors.Is(err, apperror.ErrUnauthorized) && errors.As(err, &appErr) {
			h.logger.Warn("authorize: rejected", slog.String("reason", appErr.Message))
			http.Error(w, appErr.Message, http.StatusBadRequest)
			return
		}
		h.logger.Error("authorize: login failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.secureCookies)
	http.Redirect(w, r, result.Next, http.StatusSeeOther)
}

// HandleLogout clears the session cookie and returns to the home page.
//
// HTTP: GET /logout
//
// Sessions are stateless JWTs: "logout" deletes the browser's copy. The
// token itself stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookies)
	http.Redirect(w, r, "/", http.StatusFound)
}
