// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// PasswordResetRepository implements auth.PasswordResetRepository using PostgreSQL.
type PasswordResetRepository struct {
	pool poolIface
}

// NewPasswordResetRepository creates a new PasswordResetRepository.
func NewPasswordResetRepository(pool poolIface) *PasswordResetRepository {
	return &PasswordResetRepository{pool: pool}
}

// Create stores a new reset request.
func (r *PasswordResetRepository) Create(ctx context.Context, req *auth.PasswordResetRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO password_resets (id, hash, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, req.ID.String(), req.Hash, req.UserID, req.CreatedAt)
	if err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "insert password_reset").
			With("user_id", req.UserID).
			Wrap(err)
	}
	return nil
}

// FindByHash returns the unconsumed request carrying hash, or nil.
func (r *PasswordResetRepository) FindByHash(ctx context.Context, hash string) (*auth.PasswordResetRequest, error) {
	var (
		idStr string
		req   auth.PasswordResetRequest
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, hash, user_id, created_at
		FROM password_resets
		WHERE hash = $1 AND deleted_at IS NULL
	`, hash).Scan(&idStr, &req.Hash, &req.UserID, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("RESET_GET_FAILED").With("operation", "get password_reset by hash").Wrap(err)
	}

	req.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("RESET_INVALID_ID").With("id", idStr).Wrap(err)
	}
	return &req, nil
}

// SoftDelete consumes the request with id.
func (r *PasswordResetRepository) SoftDelete(ctx context.Context, id ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE password_resets SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id.String())
	if err != nil {
		return oops.Code("RESET_DELETE_FAILED").
			With("operation", "soft delete password_reset").
			With("id", id.String()).
			Wrap(err)
	}
	return nil
}

var _ auth.PasswordResetRepository = (*PasswordResetRepository)(nil)
