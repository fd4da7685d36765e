package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/geniuspost/internal/apperror"
	"github.com/sakif/geniuspost/internal/model"
	"github.com/sakif/geniuspost/internal/repository"
)

// MaxSuggestionLength caps the free-text part of a feedback submission.
const MaxSuggestionLength = 2000

// FeedbackInput is a feedback submission as decoded from the request.
// Pointers distinguish a missing field from its zero value.
type FeedbackInput struct {
	StarRating            *int   `json:"star_rating"`
	ImprovementSuggestion string `json:"improvement_suggestion"`
	WouldRecommend        *bool  `json:"would_recommend"`
}

// LedgerService records per-user usage counters and feedback.
//
// Counters are bumped with a single atomic upsert in the repository, so
// concurrent requests from the same user never lose an increment.
type LedgerService struct {
	metrics  repository.MetricsRepository
	feedback repository.FeedbackRepository
	logger   *slog.Logger
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(metrics repository.MetricsRepository, feedback repository.FeedbackRepository, logger *slog.Logger) *LedgerService {
	return &LedgerService{metrics: metrics, feedback: feedback, logger: logger}
}

// RecordAction bumps the counter for a client-reported action. Unknown
// names and "login" are rejected without touching the store.
func (s *LedgerService) RecordAction(ctx context.Context, userID, action string) error {
	a := model.Action(strings.TrimSpace(action))
	if !a.IsTrackable() {
		return apperror.ValidationFailed("action", "Invalid action")
	}
	if err := s.metrics.Increment(ctx, userID, a); err != nil {
		return fmt.Errorf("service/ledger: recording %s for %s: %w", a, userID, err)
	}
	s.logger.Debug("action recorded", slog.String("userID", userID), slog.String("action", string(a)))
	return nil
}

// RecordLogin bumps the login counter. Only the OAuth callback calls it.
func (s *LedgerService) RecordLogin(ctx context.Context, userID string) error {
	if err := s.metrics.Increment(ctx, userID, model.ActionLogin); err != nil {
		return fmt.Errorf("service/ledger: recording login for %s: %w", userID, err)
	}
	return nil
}

// RecordFeedback validates in and appends a feedback row.
func (s *LedgerService) RecordFeedback(ctx context.Context, userID string, in FeedbackInput) (*model.UserFeedback, error) {
	if in.StarRating == nil {
		return nil, apperror.ValidationFailed("star_rating", "star_rating is required")
	}
	if *in.StarRating < 1 || *in.StarRating > 5 {
		return nil, apperror.ValidationFailed("star_rating", "star_rating must be between 1 and 5")
	}
	if in.WouldRecommend == nil {
		return nil, apperror.ValidationFailed("would_recommend", "would_recommend is required")
	}
	suggestion := strings.TrimSpace(in.ImprovementSuggestion)
	if utf8.RuneCountInString(suggestion) > MaxSuggestionLength {
		return nil, apperror.ValidationFailed("improvement_suggestion",
			fmt.Sprintf("improvement_suggestion must be at most %d characters", MaxSuggestionLength))
	}

	fb := &model.UserFeedback{
		UserID:                userID,
		StarRating:            *in.StarRating,
		ImprovementSuggestion: suggestion,
		WouldRecommend:        *in.WouldRecommend,
	}
	if err := s.feedback.CreateFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("service/ledger: saving feedback for %s: %w", userID, err)
	}

	s.logger.Info("feedback submitted",
		slog.String("userID", userID),
		slog.Int("stars", fb.StarRating),
		slog.Bool("recommend", fb.WouldRecommend),
	)
	return fb, nil
}

// HasFeedback reports whether the user has submitted feedback before.
func (s *LedgerService) HasFeedback(ctx context.Context, userID string) (bool, error) {
	has, err := s.feedback.HasFeedback(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("service/ledger: checking feedback for %s: %w", userID, err)
	}
	return has, nil
}

// Metrics returns the user's counters, all zero if nothing was recorded.
func (s *LedgerService) Metrics(ctx context.Context, userID string) (*model.UserMetrics, error) {
	m, err := s.metrics.GetMetrics(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return &model.UserMetrics{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service/ledger: loading metrics for %s: %w", userID, err)
	}
	return m, nil
}
