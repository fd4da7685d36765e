// Package service holds the business logic between handlers and storage.
//
// AuthService sits between the HTTP handlers and the identity/storage
// pieces:
//
//	AuthHandler (HTTP) → AuthService → IdentityProvider (Google OAuth)
//	                                 ↘ UserRepository (DB)
//	                                 ↘ LedgerService (login counter)
//	                                 ↘ TokenService (session + state JWTs)
//
// WHAT THIS FILE DOES NOT DO:
//   - It does NOT set cookies or redirect (HTTP concerns, see handler/auth.go)
//   - It does NOT know about chi or any router
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/geniuspost/internal/apperror"
	"github.com/sakif/geniuspost/internal/auth"
	"github.com/sakif/geniuspost/internal/model"
	"github.com/sakif/geniuspost/internal/repository"
)

// IdentityProvider is the OAuth provider the login flow talks to.
// *auth.GoogleProvider implements it; tests use a fake.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// AuthService handles the authentication business logic.
type AuthService struct {
	provider IdentityProvider
	tokens   *auth.TokenService
	users    repository.UserRepository
	ledger   *LedgerService
	logger   *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	provider IdentityProvider,
	tokens *auth.TokenService,
	users repository.UserRepository,
	ledger *LedgerService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		provider: provider,
		tokens:   tokens,
		users:    users,
		ledger:   ledger,
		logger:   logger,
	}
}

// AuthResult is returned by a successful callback. It bundles everything
// the handler needs to set the cookie and redirect in one step.
type AuthResult struct {
	User    *model.User
	Created bool
	Token   string
	Next    string // sanitized same-site path to continue to
}

// LoginURL returns the provider authorization URL. next is sanitized and
// carried through the round trip inside the signed state token.
func (s *AuthService) LoginURL(next string) (string, error) {
	state, err := s.tokens.GenerateState(auth.SanitizeNext(next))
	if err != nil {
		return "", fmt.Errorf("service/auth: generating state: %w", err)
	}
	return s.provider.AuthURL(state), nil
}

// Callback completes the OAuth flow:
//
//  1. Verify the state token (CSRF protection + the "next" target)
//  2. Exchange the code for the Google profile
//  3. Create the user on first login (existing rows are never updated)
//  4. Bump the login counter
//  5. Issue the session token
func (s *AuthService) Callback(ctx context.Context, code, state string) (*AuthResult, error) {
	next, err := s.tokens.ValidateState(state)
	if err != nil {
		return nil, apperror.Unauthorized("invalid OAuth state", err)
	}

	gu, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("oauth exchange failed", slog.String("error", err.Error()))
		return nil, apperror.Unauthorized("authentication failed", err)
	}

	user := &model.User{
		ID:        gu.Subject,
		Name:      gu.Name,
		Email:     gu.Email,
		AvatarURL: gu.Picture,
	}
	created, err := s.users.FindOrCreate(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: storing user %s: %w", gu.Subject, err)
	}

	if err := s.ledger.RecordLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via Google",
		slog.String("userID", user.ID),
		slog.Bool("newUser", created),
	)

	return &AuthResult{
		User:    user,
		Created: created,
		Token:   token,
		Next:    next,
	}, nil
}
