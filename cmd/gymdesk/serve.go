// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gymdesk/gymdesk/internal/auth"
	"github.com/gymdesk/gymdesk/internal/auth/postgres"
	authredis "github.com/gymdesk/gymdesk/internal/auth/redis"
	"github.com/gymdesk/gymdesk/internal/config"
	"github.com/gymdesk/gymdesk/internal/httpapi"
	"github.com/gymdesk/gymdesk/internal/logging"
	"github.com/gymdesk/gymdesk/internal/mail"
	"github.com/gymdesk/gymdesk/internal/observability"
	"github.com/gymdesk/gymdesk/internal/store"
	"github.com/gymdesk/gymdesk/pkg/errutil"
)

const serviceName = "gymdesk"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth HTTP API",
		Long: `Start the auth HTTP API together with the metrics and health server.
The process stops on SIGINT or SIGTERM, or when a server fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	cmd.Flags().String("http-addr", "", "API listen address (default :3000)")
	cmd.Flags().String("metrics-addr", "", "metrics/health listen address")
	cmd.Flags().String("log-format", "", "log format (json or text)")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	cmd.Flags().String("session-store", "", "session store (postgres or redis)")
	cmd.Flags().String("mail-driver", "", "mail driver (log or amqp)")

	return cmd
}

func defaultServeDeps(deps *ServeDeps) *ServeDeps {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.ConfigLoader == nil {
		deps.ConfigLoader = config.Load
	}
	if deps.LogWriter == nil {
		deps.LogWriter = os.Stderr
	}
	if deps.PoolFactory == nil {
		deps.PoolFactory = func(ctx context.Context, url string, timeout time.Duration) (Pool, error) {
			pool, err := store.Connect(ctx, url, timeout)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if deps.RedisFactory == nil {
		deps.RedisFactory = newRedisClient
	}
	if deps.MailerFactory == nil {
		deps.MailerFactory = newMailer
	}
	if deps.HTTPServerFactory == nil {
		deps.HTTPServerFactory = func(addr string, d httpapi.Deps, logger *slog.Logger) (HTTPServer, error) {
			srv, err := httpapi.NewServer(addr, d, logger)
			if err != nil {
				return nil, err
			}
			return srv, nil
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}
	return deps
}

// runServeWithDeps starts the API with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	deps = defaultServeDeps(deps)
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := deps.ConfigLoader(loadOptions(cmd))
	if err != nil {
		return err
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}, deps.LogWriter)
	if err != nil {
		return err
	}

	logger.Info("starting gymdesk",
		"http_addr", cfg.HTTP.Addr,
		"session_store", cfg.Session.Store,
		"mail_driver", cfg.Mail.Driver,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := deps.PoolFactory(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout.Std())
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	hasher, err := auth.NewPasswordHasher(cfg.Auth.Hasher.Algorithm, cfg.Auth.Hasher.BcryptCost)
	if err != nil {
		return err
	}

	sessions, closeSessions, err := newSessionRepository(ctx, cfg, pool, deps)
	if err != nil {
		return err
	}
	defer closeSessions()

	mailer, err := deps.MailerFactory(cfg.Mail, logger)
	if err != nil {
		return oops.With("operation", "create mail sender").Wrap(err)
	}
	if closer, ok := mailer.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warn("error closing mail sender", "error", err)
			}
		}()
	}

	tokens, err := auth.NewTokenIssuer(cfg.TokenConfig())
	if err != nil {
		return err
	}

	serviceDeps := auth.ServiceDeps{
		Users:    postgres.NewUserRepository(pool, hasher),
		Sessions: sessions,
		Resets:   postgres.NewPasswordResetRepository(pool),
		Hasher:   hasher,
		Tokens:   tokens,
		Mailer:   mailer,
	}
	httpDeps := httpapi.Deps{
		Tokens:         tokens,
		RequestTimeout: cfg.HTTP.RequestTimeout.Std(),
	}

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, pool.Ping)
		if metrics := obsServer.Metrics(); metrics != nil {
			serviceDeps.Metrics = metrics
			httpDeps.Metrics = metrics
		}
	}

	service, err := auth.NewServiceWithLogger(serviceDeps, logger)
	if err != nil {
		return err
	}
	httpDeps.Service = service

	httpServer, err := deps.HTTPServerFactory(cfg.HTTP.Addr, httpDeps, logger)
	if err != nil {
		return err
	}

	shutdownTimeout := cfg.HTTP.ShutdownTimeout.Std()

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		defer stopServer(logger, obsServer, "observability", shutdownTimeout)
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
	}

	httpErrCh, err := httpServer.Start()
	if err != nil {
		return oops.With("operation", "start http server").Wrap(err)
	}
	defer stopServer(logger, httpServer, "http", shutdownTimeout)
	go monitorServerErrors(ctx, cancel, httpErrCh, "http")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("gymdesk listening on " + httpServer.Addr())
	logger.Info("gymdesk ready", "http_addr", httpServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}
	return nil
}

// newSessionRepository builds the configured session store. The returned
// func releases its resources.
func newSessionRepository(ctx context.Context, cfg *config.Config, pool Pool, deps *ServeDeps) (auth.SessionRepository, func(), error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client, err := deps.RedisFactory(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, oops.With("operation", "connect to redis").Wrap(err)
		}
		repo, err := authredis.NewSessionRepository(client, cfg.Auth.RefreshExpires.Std())
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return repo, func() {
			if err := client.Close(); err != nil {
				slog.Warn("error closing redis client", "error", err)
			}
		}, nil
	default:
		return postgres.NewSessionRepository(pool), func() {}, nil
	}
}

func newRedisClient(ctx context.Context, cfg config.RedisConfig) (goredis.UniversalClient, error) {
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.Addr).Wrap(err)
	}
	return client, nil
}

func newMailer(cfg config.MailConfig, logger *slog.Logger) (auth.MailSender, error) {
	switch cfg.Driver {
	case config.MailDriverAMQP:
		sender, err := mail.DialAMQP(cfg.AMQPURL, cfg.Exchange)
		if err != nil {
			return nil, err
		}
		return sender, nil
	default:
		sender, err := mail.NewLogSender(logger)
		if err != nil {
			return nil, err
		}
		return sender, nil
	}
}

type stopper interface {
	Stop(ctx context.Context) error
}

func stopServer(logger *slog.Logger, srv stopper, name string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports a failure.
// It exits when an error is received, the channel is closed, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			errutil.LogError(slog.Default(), "server error, triggering shutdown", err, "server", serverName)
			cancel()
		}
	case <-ctx.Done():
	}
}
