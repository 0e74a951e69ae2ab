// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

// Package httpapi exposes the auth service over HTTP with echo.
//
// Routes live under /api/v1/auth. Failures are rendered by a single error
// handler as {"status": N, "errors": {field: reason}}; token and session
// failures are a bare 401.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/samber/oops"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// DefaultRequestTimeout bounds a request when Deps.RequestTimeout is zero.
const DefaultRequestTimeout = 30 * time.Second

// maxBodySize caps request bodies.
const maxBodySize = "64K"

// AuthService is the credential flow surface served over HTTP.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResponse, error)
	Register(ctx context.Context, input auth.RegisterInput) error
	Status(ctx context.Context, claims *auth.AccessClaims) (*auth.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, hash, password string) error
	Refresh(ctx context.Context, claims *auth.RefreshClaims) (*auth.RefreshResponse, error)
	Logout(ctx context.Context, claims *auth.RefreshClaims) error
}

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	VerifyAccess(token string) (*auth.AccessClaims, error)
	VerifyRefresh(token string) (*auth.RefreshClaims, error)
}

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Deps are the collaborators of a Server. Metrics is optional.
type Deps struct {
	Service        AuthService
	Tokens         TokenVerifier
	Metrics        RequestObserver
	RequestTimeout time.Duration
}

// Server is the HTTP front of the auth service.
type Server struct {
	addr       string
	echo       *echo.Echo
	service    AuthService
	logger     *slog.Logger
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer builds a Server listening on addr once started.
func NewServer(addr string, deps Deps, logger *slog.Logger) (*Server, error) {
	switch {
	case deps.Service == nil:
		return nil, oops.Code("HTTP_INVALID_SERVER").Errorf("auth service is required")
	case deps.Tokens == nil:
		return nil, oops.Code("HTTP_INVALID_SERVER").Errorf("token verifier is required")
	case logger == nil:
		return nil, oops.Code("HTTP_INVALID_SERVER").Errorf("logger is required")
	}

	timeout := deps.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}

	s := &Server{
		addr:    addr,
		echo:    echo.New(),
		service: deps.Service,
		logger:  logger,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	if deps.Metrics != nil {
		e.Use(observeRequests(deps.Metrics, time.Now))
	}
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.ErrorContext(c.Request().Context(), "handler panic",
				"error", err,
				"stack", string(stack),
			)
			return err
		},
	}))
	e.Use(echomw.BodyLimit(maxBodySize))
	e.Use(requestTimeout(timeout))

	s.routes(deps.Tokens)
	return s, nil
}

func (s *Server) routes(tokens TokenVerifier) {
	g := s.echo.Group("/api/v1/auth")
	g.POST("/email/login", s.login)
	g.POST("/email/register", s.register)
	g.GET("/me", s.me, requireAccess(tokens))
	g.POST("/forgot/password", s.forgotPassword)
	g.POST("/reset/password", s.resetPassword)
	g.POST("/refresh", s.refresh, requireRefresh(tokens))
	g.POST("/logout", s.logout, requireRefresh(tokens))
}

// Handler returns the routed echo instance.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens and serves in the background. Serve failures arrive on the
// returned channel, which is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("HTTP_RUNNING").Errorf("http server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("HTTP_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
			errCh <- err
		}
	}()

	s.logger.Info("http server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

var _ AuthService = (*auth.Service)(nil)

var _ TokenVerifier = (*auth.TokenIssuer)(nil)
