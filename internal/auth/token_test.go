// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gymdesk/gymdesk/internal/auth"
	"github.com/gymdesk/gymdesk/pkg/errutil"
)

func testTokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:         "access-secret",
		Expires:        15 * time.Minute,
		RefreshSecret:  "refresh-secret",
		RefreshExpires: 30 * 24 * time.Hour,
	}
}

func newTestIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(testTokenConfig())
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*auth.TokenConfig)
		key    string
	}{
		{"missing secret", func(c *auth.TokenConfig) { c.Secret = "" }, "auth.secret"},
		{"zero expiry", func(c *auth.TokenConfig) { c.Expires = 0 }, "auth.expires"},
		{"missing refresh secret", func(c *auth.TokenConfig) { c.RefreshSecret = "" }, "auth.refreshSecret"},
		{"refresh secret reuses access secret", func(c *auth.TokenConfig) { c.RefreshSecret = c.Secret }, "auth.refreshSecret"},
		{"negative refresh expiry", func(c *auth.TokenConfig) { c.RefreshExpires = -time.Second }, "auth.refreshExpires"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testTokenConfig()
			tt.mutate(&cfg)

			issuer, err := auth.NewTokenIssuer(cfg)
			require.Error(t, err)
			assert.Nil(t, issuer)
			errutil.AssertErrorCode(t, err, auth.CodeConfigInvalid)
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}
}

func TestTokenIssuer_ZeroValueRefusesToIssue(t *testing.T) {
	var issuer auth.TokenIssuer
	_, err := issuer.Issue(context.Background(), 1, ulid.Make(), time.Now())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeConfigInvalid)

	var nilIssuer *auth.TokenIssuer
	_, err = nilIssuer.Issue(context.Background(), 1, ulid.Make(), time.Now())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeConfigInvalid)
}

func TestTokenIssuer_Issue(t *testing.T) {
	defer goleak.VerifyNone(t)

	issuer := newTestIssuer(t)
	sessionID := ulid.Make()
	now := time.Now().Truncate(time.Second)

	pair, err := issuer.Issue(context.Background(), 42, sessionID, now)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Token)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.Token, pair.RefreshToken)
	assert.Equal(t, now.Add(15*time.Minute).UnixMilli(), pair.TokenExpires)

	access, err := issuer.VerifyAccess(pair.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), access.UserID)
	assert.Equal(t, sessionID, access.SessionID)
	assert.Equal(t, now.Unix(), access.IssuedAt.Unix())
	assert.Equal(t, now.Add(15*time.Minute).Unix(), access.ExpiresAt.Unix())

	refresh, err := issuer.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, sessionID, refresh.SessionID)
	assert.Equal(t, now.Add(30*24*time.Hour).Unix(), refresh.ExpiresAt.Unix())
}

func TestTokenIssuer_RefreshTokenCarriesNoUserID(t *testing.T) {
	issuer := newTestIssuer(t)
	pair, err := issuer.Issue(context.Background(), 42, ulid.Make(), time.Now())
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(pair.RefreshToken, claims)
	require.NoError(t, err)
	assert.NotContains(t, claims, "id")
	assert.Contains(t, claims, "sessionId")
}

func TestTokenIssuer_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	issuer := newTestIssuer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := issuer.Issue(ctx, 42, ulid.Make(), time.Now())
	require.ErrorIs(t, err, context.Canceled)
}

func TestTokenIssuer_VerifyRejects(t *testing.T) {
	issuer := newTestIssuer(t)
	sessionID := ulid.Make()
	pair, err := issuer.Issue(context.Background(), 42, sessionID, time.Now())
	require.NoError(t, err)

	other, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:         "other-access",
		Expires:        time.Minute,
		RefreshSecret:  "other-refresh",
		RefreshExpires: time.Hour,
	})
	require.NoError(t, err)

	expired, err := issuer.Issue(context.Background(), 42, sessionID, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":        42,
		"sessionId": sessionID.String(),
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	noSession, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  42,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"id":        42,
		"sessionId": sessionID.String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":        42,
		"sessionId": sessionID.String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	accessCases := []struct {
		name  string
		token string
		by    *auth.TokenIssuer
	}{
		{"wrong secret", pair.Token, other},
		{"refresh token as access", pair.RefreshToken, issuer},
		{"expired", expired.Token, issuer},
		{"missing exp", noExp, issuer},
		{"missing session", noSession, issuer},
		{"wrong algorithm", hs512, issuer},
		{"none algorithm", unsigned, issuer},
		{"garbage", "not.a.token", issuer},
		{"empty", "", issuer},
	}
	for _, tt := range accessCases {
		t.Run("access/"+tt.name, func(t *testing.T) {
			claims, err := tt.by.VerifyAccess(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			errutil.AssertErrorCode(t, err, auth.CodeInvalidToken)
		})
	}

	refreshCases := []struct {
		name  string
		token string
		by    *auth.TokenIssuer
	}{
		{"wrong secret", pair.RefreshToken, other},
		{"access token as refresh", pair.Token, issuer},
		{"garbage", "abc", issuer},
	}
	for _, tt := range refreshCases {
		t.Run("refresh/"+tt.name, func(t *testing.T) {
			claims, err := tt.by.VerifyRefresh(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			errutil.AssertErrorCode(t, err, auth.CodeInvalidToken)
		})
	}
}
