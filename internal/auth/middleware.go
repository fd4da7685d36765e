package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// SessionCookie is the name of the HttpOnly cookie holding the session token.
const SessionCookie = "session"

// DefaultNext is where users land after login when no target was given.
const DefaultNext = "/geniuspost"

// contextKey is unexported so only this package can read or write the
// user ID stored in a request context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireSession guards routes that need a logged-in user.
//
// Anonymous requests are not errors: they are redirected into the login
// flow with the original path (and query) preserved as the return target,
// e.g. GET /geniuspost → 302 /login?next=/geniuspost.
func RequireSession(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadSession attaches the user ID to the context when a valid session
// cookie is present and lets every request through. Public pages use it
// to show the logged-in state.
func LoadSession(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionCookie stores token in the HttpOnly session cookie.
// secure should be true whenever the site is served over HTTPS.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoginURL builds the /login URL that returns to next after authentication.
func LoginURL(next string) string {
	return "/login?" + url.Values{"next": {SanitizeNext(next)}}.Encode()
}

// SanitizeNext restricts post-login redirects to paths on this site.
// Anything else (absolute URLs, scheme-relative "//host" paths, empty
// values) becomes DefaultNext.
func SanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return DefaultNext
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultNext
	}
	return next
}

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the session cookie and validates it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
