// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

// Package redis stores auth sessions in Redis.
//
// Each session is a hash under session:<id> that expires with the refresh
// token lifetime. A set under user-sessions:<user id> indexes a user's
// sessions for bulk revocation. Revoked sessions keep their hash with a
// deleted_at field until it expires.
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/gymdesk/gymdesk/internal/auth"
)

const (
	defaultPrefix = "gymdesk:"

	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
	fieldDeletedAt = "deleted_at"
)

// softDeleteScript tombstones a session hash without recreating an expired one.
// KEYS[1] session key, ARGV[1] timestamp.
var softDeleteScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if redis.call("HSETNX", KEYS[1], "deleted_at", ARGV[1]) == 1 then
  redis.call("HSET", KEYS[1], "updated_at", ARGV[1])
  return 1
end
return 0
`)

// SessionRepository implements auth.SessionRepository on Redis.
type SessionRepository struct {
	client goredis.UniversalClient
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// Option configures a SessionRepository.
type Option func(*SessionRepository)

// WithPrefix sets the key prefix. The default is "gymdesk:".
func WithPrefix(prefix string) Option {
	return func(r *SessionRepository) { r.prefix = prefix }
}

// WithClock sets the time source used for revocation timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *SessionRepository) { r.now = now }
}

// NewSessionRepository creates a SessionRepository whose entries live for ttl,
// normally the refresh token lifetime.
func NewSessionRepository(client goredis.UniversalClient, ttl time.Duration, opts ...Option) (*SessionRepository, error) {
	if client == nil {
		return nil, oops.Code("SESSION_STORE_INVALID").Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, oops.Code("SESSION_STORE_INVALID").With("ttl", ttl.String()).Errorf("session ttl must be positive")
	}
	r := &SessionRepository{client: client, ttl: ttl, prefix: defaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *SessionRepository) sessionKey(id ulid.ULID) string {
	return r.prefix + "session:" + id.String()
}

func (r *SessionRepository) userKey(userID int64) string {
	return r.prefix + "user-sessions:" + strconv.FormatInt(userID, 10)
}

// Create stores session and indexes it under its user.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	key := r.sessionKey(session.ID)
	userKey := r.userKey(session.UserID)

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldUserID, session.UserID,
			fieldCreatedAt, session.CreatedAt.UTC().Format(time.RFC3339Nano),
			fieldUpdatedAt, session.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, key, r.ttl)
		pipe.SAdd(ctx, userKey, session.ID.String())
		pipe.Expire(ctx, userKey, r.ttl)
		return nil
	})
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "store session").
			With("session_id", session.ID.String()).
			With("user_id", session.UserID).
			Wrap(err)
	}
	return nil
}

// FindByID returns the live session with id, or nil.
func (r *SessionRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session").
			With("session_id", id.String()).
			Wrap(err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	if _, deleted := fields[fieldDeletedAt]; deleted {
		return nil, nil
	}

	session, err := decodeSession(id, fields)
	if err != nil {
		return nil, oops.Code("SESSION_CORRUPT").With("session_id", id.String()).Wrap(err)
	}
	return session, nil
}

// SoftDelete revokes one session. Unknown, expired or revoked sessions are
// left alone.
func (r *SessionRepository) SoftDelete(ctx context.Context, id ulid.ULID) error {
	stamp := r.now().UTC().Format(time.RFC3339Nano)
	if err := softDeleteScript.Run(ctx, r.client, []string{r.sessionKey(id)}, stamp).Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "soft delete session").
			With("session_id", id.String()).
			Wrap(err)
	}
	return nil
}

// SoftDeleteByUser revokes every session indexed under userID.
func (r *SessionRepository) SoftDeleteByUser(ctx context.Context, userID int64) error {
	userKey := r.userKey(userID)
	ids, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return oops.Code("SESSION_DELETE_BY_USER_FAILED").
			With("operation", "list user sessions").
			With("user_id", userID).
			Wrap(err)
	}

	if len(ids) == 0 {
		return nil
	}

	stamp := r.now().UTC().Format(time.RFC3339Nano)
	var errs []error
	for _, raw := range ids {
		id, err := ulid.Parse(raw)
		if err != nil {
			errs = append(errs, oops.With("session_id", raw).Wrap(err))
			continue
		}
		if err := softDeleteScript.Run(ctx, r.client, []string{r.sessionKey(id)}, stamp).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return oops.Code("SESSION_DELETE_BY_USER_FAILED").
			With("operation", "soft delete user sessions").
			With("user_id", userID).
			Wrap(err)
	}

	// Only the ids revoked above leave the index; a session created since
	// SMEMBERS stays indexed for the next revocation.
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := r.client.SRem(ctx, userKey, members...).Err(); err != nil {
		return oops.Code("SESSION_DELETE_BY_USER_FAILED").
			With("operation", "prune user session index").
			With("user_id", userID).
			Wrap(err)
	}
	return nil
}

func decodeSession(id ulid.ULID, fields map[string]string) (*auth.Session, error) {
	userID, err := strconv.ParseInt(fields[fieldUserID], 10, 64)
	if err != nil {
		return nil, oops.With("field", fieldUserID).Wrap(err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, oops.With("field", fieldCreatedAt).Wrap(err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	if err != nil {
		return nil, oops.With("field", fieldUpdatedAt).Wrap(err)
	}
	return &auth.Session{ID: id, UserID: userID, CreatedAt: createdAt, UpdatedAt: updatedAt}, nil
}

var _ auth.SessionRepository = (*SessionRepository)(nil)
