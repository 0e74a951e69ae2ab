// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/gymdesk/gymdesk/internal/auth"
)

const userColumns = `id, username, email, full_name, phone_number, salary,
	password, status, role, hash, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
// Passwords are hashed on the way in whenever they changed since load.
type UserRepository struct {
	pool   poolIface
	hasher auth.PasswordHasher
}

// NewUserRepository creates a UserRepository that hashes changed passwords
// with hasher.
func NewUserRepository(pool poolIface, hasher auth.PasswordHasher) *UserRepository {
	return &UserRepository{pool: pool, hasher: hasher}
}

// FindByID returns the user with id, or nil when there is none.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("operation", "find user by id").With("user_id", id).Wrap(err)
	}
	return user, nil
}

// FindByEmail returns the user registered with email, or nil when there is
// none. Emails compare case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, auth.NormalizeEmail(email))
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("operation", "find user by email").Wrap(err)
	}
	return user, nil
}

// Create inserts user and fills in its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	if err := auth.PreparePassword(user, r.hasher); err != nil {
		return oops.With("operation", "create user").Wrap(err)
	}
	normalizeUser(user)

	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, full_name, phone_number, salary,
		                   password, status, role, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		user.Username,
		user.Email,
		user.FullName,
		user.PhoneNumber,
		user.Salary,
		user.Password,
		user.Status.String(),
		user.Role.String(),
		user.Hash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if constraint, ok := uniqueViolation(err); ok {
		return oops.Code(auth.CodeUserConflict).
			With("username", user.Username).
			With("constraint", constraint).
			Wrap(auth.ErrConflict)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	user.MarkLoaded()
	return nil
}

// Save writes every mutable column of user back to its row.
func (r *UserRepository) Save(ctx context.Context, user *auth.User) error {
	if err := auth.PreparePassword(user, r.hasher); err != nil {
		return oops.With("operation", "save user").Wrap(err)
	}
	normalizeUser(user)

	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET
			username = $2,
			email = $3,
			full_name = $4,
			phone_number = $5,
			salary = $6,
			password = $7,
			status = $8,
			role = $9,
			hash = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PhoneNumber,
		user.Salary,
		user.Password,
		user.Status.String(),
		user.Role.String(),
		user.Hash,
	).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return oops.Code("USER_NOT_FOUND").With("user_id", user.ID).Wrap(auth.ErrNotFound)
	}
	if constraint, ok := uniqueViolation(err); ok {
		return oops.Code(auth.CodeUserConflict).
			With("user_id", user.ID).
			With("constraint", constraint).
			Wrap(auth.ErrConflict)
	}
	if err != nil {
		return oops.Code("USER_SAVE_FAILED").
			With("operation", "update user").
			With("user_id", user.ID).
			Wrap(err)
	}
	user.UpdatedAt = updatedAt
	user.MarkLoaded()
	return nil
}

func normalizeUser(user *auth.User) {
	if user.Email != nil {
		email := auth.NormalizeEmail(*user.Email)
		user.Email = &email
	}
}

// scanUser scans one users row. pgx.ErrNoRows is returned unwrapped.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u            auth.User
		status, role string
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.PhoneNumber,
		&u.Salary,
		&u.Password,
		&status,
		&role,
		&u.Hash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err //nolint:wrapcheck // callers map this to a nil user
	}
	if err != nil {
		return nil, oops.Code("USER_SCAN_FAILED").Wrap(err)
	}

	if u.Status, err = auth.ParseStatus(status); err != nil {
		return nil, oops.With("user_id", u.ID).Wrap(err)
	}
	if u.Role, err = auth.ParseRole(role); err != nil {
		return nil, oops.With("user_id", u.ID).Wrap(err)
	}
	u.MarkLoaded()
	return &u, nil
}

var _ auth.UserRepository = (*UserRepository)(nil)
