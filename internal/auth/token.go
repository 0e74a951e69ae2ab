// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

var signingMethod = jwt.SigningMethodHS256

// TokenConfig holds signing secrets and lifetimes for both token kinds.
type TokenConfig struct {
	Secret         string
	Expires        time.Duration
	RefreshSecret  string
	RefreshExpires time.Duration
}

// Validate reports the first missing or non-positive setting.
func (c TokenConfig) Validate() error {
	switch {
	case c.Secret == "":
		return configInvalid("auth.secret", "secret is required")
	case c.Expires <= 0:
		return configInvalid("auth.expires", "expiry must be positive")
	case c.RefreshSecret == "":
		return configInvalid("auth.refreshSecret", "refresh secret is required")
	case c.RefreshSecret == c.Secret:
		return configInvalid("auth.refreshSecret", "must differ from auth.secret")
	case c.RefreshExpires <= 0:
		return configInvalid("auth.refreshExpires", "refresh expiry must be positive")
	}
	return nil
}

func configInvalid(key, msg string) error {
	return oops.Code(CodeConfigInvalid).With("key", key).Errorf("%s: %s", key, msg)
}

// TokenPair is the credential bundle returned by login and refresh.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	// TokenExpires is the access token expiry in epoch milliseconds.
	TokenExpires int64 `json:"tokenExpires"`
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID    int64     `json:"id"`
	SessionID ulid.ULID `json:"sessionId"`
	jwt.RegisteredClaims
}

// Validate implements jwt.ClaimsValidator.
func (c AccessClaims) Validate() error {
	if c.UserID <= 0 {
		return oops.Errorf("missing id claim")
	}
	if c.SessionID.IsZero() {
		return oops.Errorf("missing sessionId claim")
	}
	return nil
}

// RefreshClaims is the payload of a refresh token. It carries no user id.
type RefreshClaims struct {
	SessionID ulid.ULID `json:"sessionId"`
	jwt.RegisteredClaims
}

// Validate implements jwt.ClaimsValidator.
func (c RefreshClaims) Validate() error {
	if c.SessionID.IsZero() {
		return oops.Errorf("missing sessionId claim")
	}
	return nil
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer struct {
	cfg TokenConfig
}

// NewTokenIssuer creates a TokenIssuer after validating cfg.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// Issue mints a token pair bound to sessionID. Both tokens are signed
// concurrently and the call returns once both are done.
func (t *TokenIssuer) Issue(ctx context.Context, userID int64, sessionID ulid.ULID, now time.Time) (*TokenPair, error) {
	if t == nil {
		return nil, configInvalid("auth", "token issuer is not configured")
	}
	if err := t.cfg.Validate(); err != nil {
		return nil, err
	}

	accessExpiry := now.Add(t.cfg.Expires)
	access := AccessClaims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	}
	refresh := RefreshClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.RefreshExpires)),
		},
	}

	pair := &TokenPair{TokenExpires: accessExpiry.UnixMilli()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		signed, err := jwt.NewWithClaims(signingMethod, access).SignedString([]byte(t.cfg.Secret))
		if err != nil {
			return oops.Code("TOKEN_SIGN_FAILED").With("kind", "access").Wrap(err)
		}
		pair.Token = signed
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		signed, err := jwt.NewWithClaims(signingMethod, refresh).SignedString([]byte(t.cfg.RefreshSecret))
		if err != nil {
			return oops.Code("TOKEN_SIGN_FAILED").With("kind", "refresh").Wrap(err)
		}
		pair.RefreshToken = signed
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, oops.With("operation", "issue token pair").With("session_id", sessionID.String()).Wrap(err)
	}
	return pair, nil
}

// VerifyAccess validates an access token and returns its claims.
func (t *TokenIssuer) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.parse(token, claims, t.cfg.Secret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token and returns its claims.
func (t *TokenIssuer) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := t.parse(token, claims, t.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) parse(token string, claims jwt.Claims, secret string) error {
	if t == nil || secret == "" {
		return configInvalid("auth", "token issuer is not configured")
	}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return oops.Code(CodeInvalidToken).Wrap(err)
	}
	return nil
}
