// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymdesk/gymdesk/internal/config"
	"github.com/gymdesk/gymdesk/pkg/errutil"
)

type fakeMigrator struct {
	version  uint
	dirty    bool
	pending  []uint
	upErr    error
	closeErr error
	calls    []string
	steps    []int
	forced   []int
	closed   bool
}

func (m *fakeMigrator) Up() error {
	m.calls = append(m.calls, "up")
	if m.upErr != nil {
		return m.upErr
	}
	if len(m.pending) > 0 {
		m.version = m.pending[len(m.pending)-1]
	}
	m.pending = nil
	return nil
}

func (m *fakeMigrator) Down() error {
	m.calls = append(m.calls, "down")
	m.version = 0
	return nil
}

func (m *fakeMigrator) Steps(n int) error {
	m.calls = append(m.calls, "steps")
	m.steps = append(m.steps, n)
	if n < 0 && m.version > 0 {
		m.version--
	}
	return nil
}

func (m *fakeMigrator) Version() (uint, bool, error) { return m.version, m.dirty, nil }

func (m *fakeMigrator) Force(v int) error {
	m.forced = append(m.forced, v)
	return nil
}

func (m *fakeMigrator) PendingMigrations() ([]uint, error) { return m.pending, nil }

func (m *fakeMigrator) Close() error {
	m.closed = true
	return m.closeErr
}

func runMigrateCmd(t *testing.T, m *fakeMigrator, databaseURL string, args ...string) (string, string, error) {
	t.Helper()
	var gotURL string
	deps := &MigrateDeps{
		ConfigReader: func(config.LoadOptions) (*config.Config, error) {
			cfg := config.Default()
			cfg.Database.URL = databaseURL
			return &cfg, nil
		},
		MigratorFactory: func(url string) (Migrator, error) {
			gotURL = url
			return m, nil
		},
	}

	root := &cobra.Command{Use: "gymdesk", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(newMigrateCmdWithDeps(deps))
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(append([]string{"migrate"}, args...))

	err := root.Execute()
	return out.String(), gotURL, err
}

func TestMigrate_DefaultAppliesPending(t *testing.T) {
	m := &fakeMigrator{pending: []uint{1, 2, 3}}
	out, url, err := runMigrateCmd(t, m, "postgres://db/gymdesk")
	require.NoError(t, err)

	assert.Equal(t, "postgres://db/gymdesk", url)
	assert.Equal(t, []string{"up"}, m.calls)
	assert.Contains(t, out, "Applying 3 migration(s)")
	assert.Contains(t, out, "Schema version: 000003_password_resets")
	assert.True(t, m.closed)
}

func TestMigrate_UpNothingPending(t *testing.T) {
	m := &fakeMigrator{version: 3}
	out, _, err := runMigrateCmd(t, m, "postgres://db/gymdesk", "up")
	require.NoError(t, err)

	assert.Empty(t, m.calls)
	assert.Contains(t, out, "No pending migrations")
}

func TestMigrate_UpFailure(t *testing.T) {
	m := &fakeMigrator{pending: []uint{1}, upErr: errors.New("syntax error")}
	_, _, err := runMigrateCmd(t, m, "postgres://db/gymdesk", "up")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_FAILED")
	assert.True(t, m.closed, "migrator closed after failure")
}

func TestMigrate_Down(t *testing.T) {
	m := &fakeMigrator{version: 3}
	out, _, err := runMigrateCmd(t, m, "postgres://db/gymdesk", "down")
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, m.steps)
	assert.Contains(t, out, "000002_sessions")

	m = &fakeMigrator{version: 3}
	out, _, err = runMigrateCmd(t, m, "postgres://db/gymdesk", "down", "--all")
	require.NoError(t, err)
	assert.Equal(t, []string{"down"}, m.calls)
	assert.Contains(t, out, "Schema version: none")
}

func TestMigrate_Version(t *testing.T) {
	m := &fakeMigrator{version: 2, dirty: true}
	out, _, err := runMigrateCmd(t, m, "postgres://db/gymdesk", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 000002_sessions (dirty)")
}

func TestMigrate_Force(t *testing.T) {
	m := &fakeMigrator{version: 2, dirty: true}
	out, _, err := runMigrateCmd(t, m, "postgres://db/gymdesk", "force", "1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, m.forced)
	assert.Contains(t, out, "Forced schema version to 1")

	_, _, err = runMigrateCmd(t, &fakeMigrator{}, "postgres://db/gymdesk", "force", "one")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

func TestMigrate_Pending(t *testing.T) {
	m := &fakeMigrator{version: 1, pending: []uint{2, 3, 42}}
	out, _, err := runMigrateCmd(t, m, "postgres://db/gymdesk", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "000002_sessions")
	assert.Contains(t, out, "000003_password_resets")
	assert.Contains(t, out, "000042")
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	m := &fakeMigrator{}
	_, _, err := runMigrateCmd(t, m, "", "up")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.False(t, m.closed, "no migrator is opened")
}

func TestMigrate_CloseErrorReported(t *testing.T) {
	m := &fakeMigrator{version: 1, closeErr: errors.New("close failed")}
	_, _, err := runMigrateCmd(t, m, "postgres://db/gymdesk", "version")
	assert.EqualError(t, err, "close failed")
}
