// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymdesk/gymdesk/pkg/errutil"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestLogError_OopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("SESSION_CREATE_FAILED").
		With("user_id", 7).
		Errorf("insert failed")

	errutil.LogError(logger, "login failed", err, "path", "/api/v1/auth/email/login")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "login failed", entry["msg"])
	assert.Equal(t, "SESSION_CREATE_FAILED", entry["code"])
	assert.Equal(t, "/api/v1/auth/email/login", entry["path"])
	ctx, ok := entry["context"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 7, ctx["user_id"], 0)
}

func TestLogError_StandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("standard error"))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "standard error")
	assert.NotContains(t, entry, "code")
}

func TestLogErrorContext_WrappedCodeSurvives(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	inner := oops.Code("USER_CONFLICT").Errorf("duplicate username")
	errutil.LogErrorContext(context.Background(), logger, "register failed",
		oops.With("operation", "create user").Wrap(inner))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "USER_CONFLICT", entry["code"])
	ctx, ok := entry["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "create user", ctx["operation"])
}
