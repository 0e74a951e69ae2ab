// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymdesk/gymdesk/internal/auth"
	"github.com/gymdesk/gymdesk/internal/auth/mocks"
	"github.com/gymdesk/gymdesk/pkg/errutil"
)

var userRowColumns = []string{
	"id", "username", "email", "full_name", "phone_number", "salary",
	"password", "status", "role", "hash", "created_at", "updated_at",
}

func strPtr(s string) *string { return &s }

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestUserRepository_FindByEmail(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("normalizes email and maps row", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE email = \$1`).
			WithArgs("alice@example.com").
			WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(
				int64(7), "alice", strPtr("alice@example.com"), strPtr("Alice A"), nil, nil,
				"$2a$10$hash", "active", "trainer", nil, now, now,
			))

		repo := NewUserRepository(mock, mocks.NewMockPasswordHasher(t))
		user, err := repo.FindByEmail(context.Background(), "  Alice@Example.COM ")
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", *user.Email)
		assert.Nil(t, user.PhoneNumber)
		assert.Equal(t, auth.StatusActive, user.Status)
		assert.Equal(t, auth.RoleTrainer, user.Role)
		assert.False(t, user.PasswordChanged(), "loaded password is not a change")
	})

	t.Run("missing row is nil user", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE email`).
			WithArgs("ghost@example.com").
			WillReturnError(pgx.ErrNoRows)

		user, err := NewUserRepository(mock, nil).FindByEmail(context.Background(), "ghost@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("corrupt role fails", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE email`).
			WithArgs("bob@example.com").
			WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(
				int64(8), "bob", strPtr("bob@example.com"), nil, nil, nil,
				"$2a$10$hash", "inactive", "janitor", nil, now, now,
			))

		_, err := NewUserRepository(mock, nil).FindByEmail(context.Background(), "bob@example.com")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_ROLE")
		errutil.AssertErrorContext(t, err, "user_id", int64(8))
	})

	t.Run("query error propagates", func(t *testing.T) {
		mock := newMockPool(t)
		boom := errors.New("connection refused")
		mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE email`).
			WithArgs("bob@example.com").
			WillReturnError(boom)

		_, err := NewUserRepository(mock, nil).FindByEmail(context.Background(), "bob@example.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		errutil.AssertErrorCode(t, err, "USER_SCAN_FAILED")
	})
}

func TestUserRepository_FindByID(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	user, err := NewUserRepository(mock, nil).FindByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_Create(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("hashes password and assigns id", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Hash", "secret1").Return("$2a$10$hashed", nil).Once()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("carol", strPtr("carol@example.com"), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				"$2a$10$hashed", "inactive", "manager", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(12), now, now))

		user := &auth.User{
			Username: "carol",
			Email:    strPtr("Carol@Example.com"),
			Password: "secret1",
			Role:     auth.RoleManager,
		}
		require.NoError(t, NewUserRepository(mock, hasher).Create(context.Background(), user))

		assert.Equal(t, int64(12), user.ID)
		assert.Equal(t, now, user.CreatedAt)
		assert.Equal(t, "$2a$10$hashed", user.Password)
		assert.Equal(t, "carol@example.com", *user.Email)
		assert.False(t, user.PasswordChanged())
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Hash", "secret1").Return("$2a$10$hashed", nil).Once()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs(anyArgs(9)...).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idx_users_username"})

		err := NewUserRepository(mock, hasher).Create(context.Background(), &auth.User{Username: "carol", Password: "secret1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrConflict)
		errutil.AssertErrorCode(t, err, auth.CodeUserConflict)
		errutil.AssertErrorContext(t, err, "constraint", "idx_users_username")
	})

	t.Run("hash failure stops insert", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Hash", "secret1").Return("", auth.ErrEmptyPassword).Once()

		err := NewUserRepository(mock, hasher).Create(context.Background(), &auth.User{Username: "carol", Password: "secret1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})
}

func TestUserRepository_Save(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	loaded := func() *auth.User {
		u := &auth.User{ID: 5, Username: "dave", Password: "$2a$10$old", Status: auth.StatusActive}
		u.MarkLoaded()
		return u
	}

	t.Run("unchanged password is not rehashed", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs(int64(5), "dave", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				"$2a$10$old", "active", "staff", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

		user := loaded()
		require.NoError(t, NewUserRepository(mock, mocks.NewMockPasswordHasher(t)).Save(context.Background(), user))
		assert.Equal(t, now, user.UpdatedAt)
	})

	t.Run("changed password is hashed", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Hash", "n3wpass").Return("$2a$10$new", nil).Once()
		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs(int64(5), "dave", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				"$2a$10$new", "active", "staff", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

		user := loaded()
		user.Password = "n3wpass"
		require.NoError(t, NewUserRepository(mock, hasher).Save(context.Background(), user))
		assert.Equal(t, "$2a$10$new", user.Password)
	})

	t.Run("missing row is not found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`UPDATE users SET`).WithArgs(anyArgs(10)...).WillReturnError(pgx.ErrNoRows)

		err := NewUserRepository(mock, nil).Save(context.Background(), loaded())
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs(anyArgs(10)...).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idx_users_email"})

		err := NewUserRepository(mock, nil).Save(context.Background(), loaded())
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrConflict)
		errutil.AssertErrorCode(t, err, auth.CodeUserConflict)
		errutil.AssertErrorContext(t, err, "constraint", "idx_users_email")
	})
}

// anyArgs matches n query arguments of any value.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
