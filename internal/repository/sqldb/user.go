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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// FindOrCreate inserts the user unless a row with the same ID exists, then
// reads the stored row back into user.
//
// INSERT ... ON CONFLICT DO NOTHING makes this one statement instead of a
// lookup followed by an insert, so two concurrent first logins for the same
// account cannot both try to create it. An existing row is left untouched:
// profile fields are captured on first login only.
func (db *DB) FindOrCreate(ctx context.Context, user *model.User) (bool, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx, db.rebind(
		`INSERT INTO "user" (id, name, email, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`),
		user.ID,
		user.Name,
		nullIfEmpty(user.Email),
		user.AvatarURL,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Same email, different Google account.
			return false, apperror.Conflict("user email", user.Email)
		}
		return false, fmt.Errorf("sqldb: inserting user %s: %w", user.ID, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqldb: checking rows affected: %w", err)
	}

	stored, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		return false, err
	}
	*user = *stored

	return inserted > 0, nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var (
		u     model.User
		email sql.NullString
	)

	err := db.conn.QueryRowContext(ctx, db.rebind(
		`SELECT id, name, email, avatar_url, created_at
		 FROM "user" WHERE id = ?`),
		id,
	).Scan(
		&u.ID,
		&u.Name,
		&email,
		&u.AvatarURL,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqldb: getting user %s: %w", id, err)
	}
	u.Email = email.String

	return &u, nil
}
