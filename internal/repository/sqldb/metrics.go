package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/geniuspost/internal/apperror"
	"github.com/sakif/geniuspost/internal/model"
	"github.com/sakif/geniuspost/internal/repository"
)

var _ repository.MetricsRepository = (*DB)(nil)

// counterColumns whitelists the column for each action. Column names cannot
// be bound as parameters, so Increment only ever formats values from here.
var counterColumns = map[model.Action]string{
	model.ActionLogin:       "login_count",
	model.ActionGenerate:    "generate_count",
	model.ActionInfographic: "infographic_count",
	model.ActionExportPDF:   "export_pdf_count",
	model.ActionInsertImage: "insert_image_count",
	model.ActionRegenerate:  "regenerate_count",
	model.ActionClear:       "clear_count",
}

// Increment bumps one counter in a single upsert: the first action creates
// the row with that counter at 1, later ones add 1 in place.
func (db *DB) Increment(ctx context.Context, userID string, action model.Action) error {
	col, ok := counterColumns[action]
	if !ok {
		return apperror.ValidationFailed("action", fmt.Sprintf("unknown action %q", action))
	}

	query := fmt.Sprintf(
		`INSERT INTO user_metrics (user_id, %[1]s, last_updated)
		 VALUES (?, 1, ?)
		 ON CONFLICT (user_id) DO UPDATE
		 SET %[1]s = user_metrics.%[1]s + 1, last_updated = excluded.last_updated`,
		col,
	)

	if _, err := db.conn.ExecContext(ctx, db.rebind(query), userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("sqldb: incrementing %s for user %s: %w", col, userID, err)
	}
	return nil
}

// GetMetrics returns the counters row for userID.
// Returns apperror.ErrNotFound if the user has no recorded actions.
func (db *DB) GetMetrics(ctx context.Context, userID string) (*model.UserMetrics, error) {
	var m model.UserMetrics

	err := db.conn.QueryRowContext(ctx, db.rebind(
		`SELECT user_id, login_count, generate_count, infographic_count,
		        export_pdf_count, insert_image_count, regenerate_count,
		        clear_count, last_updated
		 FROM user_metrics WHERE user_id = ?`),
		userID,
	).Scan(
		&m.UserID,
		&m.LoginCount,
		&m.GenerateCount,
		&m.InfographicCount,
		&m.ExportPDFCount,
		&m.InsertImageCount,
		&m.RegenerateCount,
		&m.ClearCount,
		&m.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user metrics", userID)
		}
		return nil, fmt.Errorf("sqldb: getting metrics for user %s: %w", userID, err)
	}

	return &m, nil
}
