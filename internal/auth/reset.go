// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// HashSeedBytes is the amount of random input digested into an opaque hash.
const HashSeedBytes = 32

// PasswordResetRequest is a pending password reset.
// It is consumed exactly once by soft deletion.
type PasswordResetRequest struct {
	ID        ulid.ULID
	Hash      string
	UserID    int64
	CreatedAt time.Time
	DeletedAt *time.Time
}

// NewPasswordResetRequest creates a reset request for userID.
func NewPasswordResetRequest(userID int64, hash string, now time.Time) (*PasswordResetRequest, error) {
	if userID <= 0 {
		return nil, oops.Code("RESET_INVALID_USER").With("user_id", userID).Errorf("user ID must be positive")
	}
	if hash == "" {
		return nil, oops.Code("RESET_INVALID_HASH").Errorf("hash cannot be empty")
	}
	return &PasswordResetRequest{
		ID:        ulid.Make(),
		Hash:      hash,
		UserID:    userID,
		CreatedAt: now,
	}, nil
}

// GenerateHash returns an opaque single-use token: the SHA-256 digest of
// HashSeedBytes random bytes, hex encoded (64 lowercase characters).
func GenerateHash() (string, error) {
	seed := make([]byte, HashSeedBytes)
	if _, err := rand.Read(seed); err != nil {
		return "", oops.Code("HASH_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", HashSeedBytes).
			Wrap(err)
	}
	sum := sha256.Sum256(seed)
	return hex.EncodeToString(sum[:]), nil
}

// PasswordResetRepository manages password reset persistence.
type PasswordResetRepository interface {
	// Create stores a new reset request.
	Create(ctx context.Context, request *PasswordResetRequest) error

	// FindByHash returns the live request or (nil, nil) when the hash is
	// unknown or already consumed.
	FindByHash(ctx context.Context, hash string) (*PasswordResetRequest, error)

	// SoftDelete consumes a request. Consuming twice succeeds.
	SoftDelete(ctx context.Context, id ulid.ULID) error
}
