// Package auth provides the Google OAuth flow, signed session and state
// tokens, and the route guard for the GeniusPost server.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. An anonymous visitor hits a gated page (or /login?next=...)
// 2. /login signs the "next" target into a short-lived state token and
//    redirects to Google's consent screen
// 3. Google calls back /authorize with a code and the state
// 4. The server exchanges the code for the user's identity claims,
//    finds or creates the user row, and issues a session token in an
//    HttpOnly cookie
// 5. RequireSession reads the cookie on later requests and stores the
//    user ID in the request context
//
// Session and state tokens are HS256 JWTs. They are signed with two
// different keys derived from SECRET_KEY (see keys.go).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "geniuspost"

	// SessionDuration is how long a login lasts.
	SessionDuration = 24 * time.Hour

	// StateDuration bounds the time a user may spend on Google's consent
	// screen before the callback is rejected.
	StateDuration = 10 * time.Minute
)

// TokenService signs and verifies session and OAuth state tokens.
type TokenService struct {
	sessionKey []byte
	stateKey   []byte
}

// NewTokenService derives the signing keys from secret.
// The secret should be at least 16 characters of random data.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	sessionKey, err := deriveKey([]byte(secret), purposeSession)
	if err != nil {
		return nil, err
	}
	stateKey, err := deriveKey([]byte(secret), purposeState)
	if err != nil {
		return nil, err
	}
	return &TokenService{sessionKey: sessionKey, stateKey: stateKey}, nil
}

// claims is the session payload. The subject holds the user ID.
type claims struct {
	jwt.RegisteredClaims
}

// stateClaims carries the post-login destination through the OAuth round trip.
type stateClaims struct {
	Next string `json:"next"`
	jwt.RegisteredClaims
}

// Generate issues a session token for userID, valid for SessionDuration.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, SessionDuration)
}

// GenerateWithDuration issues a session token with a custom lifetime.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}
	return sign(c, s.sessionKey)
}

// Validate verifies a session token and returns the user ID it carries.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	c := &claims{}
	if err := parse(tokenStr, c, s.sessionKey); err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}

// GenerateState signs next into an OAuth state value.
func (s *TokenService) GenerateState(next string) (string, error) {
	now := time.Now()
	c := stateClaims{
		Next: next,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateDuration)),
			Issuer:    issuer,
		},
	}
	return sign(c, s.stateKey)
}

// ValidateState verifies an OAuth state value and returns the sanitized
// post-login destination.
func (s *TokenService) ValidateState(state string) (string, error) {
	c := &stateClaims{}
	if err := parse(state, c, s.stateKey); err != nil {
		return "", err
	}
	return SanitizeNext(c.Next), nil
}

func sign(c jwt.Claims, key []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

func parse(tokenStr string, c jwt.Claims, key []byte) error {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("auth: token expired")
		}
		return fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("auth: invalid token claims")
	}
	return nil
}
