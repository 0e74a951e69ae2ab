// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gymdesk/gymdesk/internal/auth"
	"github.com/gymdesk/gymdesk/internal/config"
	"github.com/gymdesk/gymdesk/internal/httpapi"
	"github.com/gymdesk/gymdesk/internal/observability"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// ConfigLoader loads and validates the configuration.
	// Default: config.Load
	ConfigLoader func(opts config.LoadOptions) (*config.Config, error)

	// LogWriter receives log output.
	// Default: os.Stderr
	LogWriter io.Writer

	// PoolFactory opens the database pool.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, url string, timeout time.Duration) (Pool, error)

	// RedisFactory connects the Redis session store client.
	// Default: newRedisClient
	RedisFactory func(ctx context.Context, cfg config.RedisConfig) (goredis.UniversalClient, error)

	// MailerFactory creates the mail sender for the configured driver.
	// Default: newMailer
	MailerFactory func(cfg config.MailConfig, logger *slog.Logger) (auth.MailSender, error)

	// HTTPServerFactory creates the API server.
	// Default: httpapi.NewServer
	HTTPServerFactory func(addr string, deps httpapi.Deps, logger *slog.Logger) (HTTPServer, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker) ObservabilityServer
}

// Pool wraps the pgxpool.Pool methods used by serve and the repositories.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// HTTPServer wraps the methods used from httpapi.Server.
type HTTPServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// MigrateDeps contains injectable dependencies for the migrate command.
type MigrateDeps struct {
	// ConfigReader loads the configuration without validating it.
	// Default: config.Read
	ConfigReader func(opts config.LoadOptions) (*config.Config, error)

	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}
