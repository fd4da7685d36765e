package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/geniuspost/internal/model"
	"github.com/sakif/geniuspost/internal/repository"
)

var _ repository.FeedbackRepository = (*DB)(nil)

// CreateFeedback appends a feedback row. ID and SubmittedAt are filled in.
func (db *DB) CreateFeedback(ctx context.Context, fb *model.UserFeedback) error {
	fb.ID = xid.New().String()
	fb.SubmittedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx, db.rebind(
		`INSERT INTO user_feedback
		   (id, user_id, star_rating, improvement_suggestion, would_recommend, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		fb.ID,
		fb.UserID,
		fb.StarRating,
		fb.ImprovementSuggestion,
		fb.WouldRecommend,
		fb.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("sqldb: inserting feedback for user %s: %w", fb.UserID, err)
	}
	return nil
}

// HasFeedback reports whether userID has submitted at least one row.
func (db *DB) HasFeedback(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx, db.rebind(
		`SELECT EXISTS (SELECT 1 FROM user_feedback WHERE user_id = ?)`),
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqldb: checking feedback for user %s: %w", userID, err)
	}
	return exists, nil
}
