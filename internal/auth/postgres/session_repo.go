// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
// Revoked sessions keep their row with deleted_at set.
type SessionRepository struct {
	pool poolIface
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool poolIface) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, session.ID.String(), session.UserID, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("session_id", session.ID.String()).
			With("user_id", session.UserID).
			Wrap(err)
	}
	return nil
}

// FindByID returns the live session with id, or nil.
func (r *SessionRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.Session, error) {
	var (
		idStr     string
		session   auth.Session
		deletedAt *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, updated_at, deleted_at
		FROM sessions
		WHERE id = $1 AND deleted_at IS NULL
	`, id.String()).Scan(&idStr, &session.UserID, &session.CreatedAt, &session.UpdatedAt, &deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session").
			With("session_id", id.String()).
			Wrap(err)
	}

	session.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").With("session_id", idStr).Wrap(err)
	}
	session.DeletedAt = deletedAt
	return &session, nil
}

// SoftDelete marks one session deleted. Unknown or already deleted sessions
// are left alone.
func (r *SessionRepository) SoftDelete(ctx context.Context, id ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE sessions SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id.String())
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "soft delete session").
			With("session_id", id.String()).
			Wrap(err)
	}
	return nil
}

// SoftDeleteByUser marks every live session of userID deleted.
func (r *SessionRepository) SoftDeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE sessions SET deleted_at = now(), updated_at = now()
		WHERE user_id = $1 AND deleted_at IS NULL
	`, userID)
	if err != nil {
		return oops.Code("SESSION_DELETE_BY_USER_FAILED").
			With("operation", "soft delete user sessions").
			With("user_id", userID).
			Wrap(err)
	}
	return nil
}

var _ auth.SessionRepository = (*SessionRepository)(nil)
