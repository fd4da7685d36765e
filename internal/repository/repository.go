// Package repository declares the storage interfaces the services depend on.
// internal/repository/sqldb implements all of them on database/sql.
package repository

import (
	"context"

	"github.com/sakif/geniuspost/internal/model"
)

// UserRepository stores accounts created by the OAuth callback.
type UserRepository interface {
	// FindOrCreate inserts user if no row with user.ID exists, then loads
	// the stored row into user. Existing rows are never modified.
	// created reports whether this call inserted the row.
	FindOrCreate(ctx context.Context, user *model.User) (created bool, err error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// MetricsRepository stores the per-user action counters.
type MetricsRepository interface {
	// Increment bumps the counter for action by one and stamps the row,
	// creating it first if needed. The increment is a single atomic upsert.
	Increment(ctx context.Context, userID string, action model.Action) error
	GetMetrics(ctx context.Context, userID string) (*model.UserMetrics, error)
}

// FeedbackRepository stores the append-only feedback log.
type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, fb *model.UserFeedback) error
	HasFeedback(ctx context.Context, userID string) (bool, error)
}
