// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session is the server-side record a token pair is bound to.
// A session with DeletedAt set never validates a refresh token again.
type Session struct {
	ID        ulid.ULID
	UserID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// NewSession creates a live session for userID.
func NewSession(userID int64, now time.Time) (*Session, error) {
	if userID <= 0 {
		return nil, oops.Code("SESSION_INVALID_USER").With("user_id", userID).Errorf("user ID must be positive")
	}
	return &Session{
		ID:        ulid.Make(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsDeleted reports whether the session has been revoked.
func (s *Session) IsDeleted() bool {
	return s.DeletedAt != nil
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// FindByID returns the live session or (nil, nil) when it is unknown or deleted.
	FindByID(ctx context.Context, id ulid.ULID) (*Session, error)

	// SoftDelete revokes one session. Revoking an already revoked or unknown
	// session succeeds.
	SoftDelete(ctx context.Context, id ulid.ULID) error

	// SoftDeleteByUser revokes every live session owned by userID.
	SoftDeleteByUser(ctx context.Context, userID int64) error
}
