// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymdesk/gymdesk/internal/auth"
	"github.com/gymdesk/gymdesk/pkg/errutil"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates a live session", func(t *testing.T) {
		s, err := auth.NewSession(5, now)
		require.NoError(t, err)
		assert.False(t, s.ID.IsZero())
		assert.Equal(t, int64(5), s.UserID)
		assert.Equal(t, now, s.CreatedAt)
		assert.Equal(t, now, s.UpdatedAt)
		assert.False(t, s.IsDeleted())
	})

	t.Run("ids are unique per session", func(t *testing.T) {
		a, err := auth.NewSession(5, now)
		require.NoError(t, err)
		b, err := auth.NewSession(5, now)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("rejects non-positive user id", func(t *testing.T) {
		_, err := auth.NewSession(0, now)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_USER")
	})

	t.Run("deleted session", func(t *testing.T) {
		s, err := auth.NewSession(5, now)
		require.NoError(t, err)
		s.DeletedAt = &now
		assert.True(t, s.IsDeleted())
	})
}
