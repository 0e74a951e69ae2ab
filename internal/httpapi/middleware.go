// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// Context keys for verified token claims.
const (
	accessClaimsKey  = "auth.access"
	refreshClaimsKey = "auth.refresh"
)

const bearerPrefix = "Bearer "

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", oops.Code(auth.CodeInvalidToken).Errorf("missing bearer token")
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), nil
}

// requireAccess verifies the bearer access token and stores its claims.
func requireAccess(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}
			claims, err := tokens.VerifyAccess(raw)
			if err != nil {
				return err
			}
			c.Set(accessClaimsKey, claims)
			return next(c)
		}
	}
}

// requireRefresh verifies the bearer refresh token and stores its claims.
func requireRefresh(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}
			claims, err := tokens.VerifyRefresh(raw)
			if err != nil {
				return err
			}
			c.Set(refreshClaimsKey, claims)
			return next(c)
		}
	}
}

func accessClaims(c echo.Context) (*auth.AccessClaims, error) {
	claims, ok := c.Get(accessClaimsKey).(*auth.AccessClaims)
	if !ok {
		return nil, oops.Code(auth.CodeUnauthorized).Errorf("no access claims on request")
	}
	return claims, nil
}

func refreshClaims(c echo.Context) (*auth.RefreshClaims, error) {
	claims, ok := c.Get(refreshClaimsKey).(*auth.RefreshClaims)
	if !ok {
		return nil, oops.Code(auth.CodeUnauthorized).Errorf("no refresh claims on request")
	}
	return claims, nil
}

// requestTimeout bounds the request context. Handlers observe the deadline
// through the context passed to the service.
func requestTimeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if d <= 0 {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// observeRequests reports each request after the error handler has written
// the final status.
func observeRequests(obs RequestObserver, now func() time.Time) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			obs.ObserveRequest(c.Request().Method, route, c.Response().Status, now().Sub(start))
			return nil
		}
	}
}
