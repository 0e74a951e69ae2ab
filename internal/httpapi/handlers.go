// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"
)

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return oops.With("operation", "bind request").Wrap(err)
	}
	return nil
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.normalize(); err != nil {
		return err
	}

	resp, err := s.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	input, err := req.input()
	if err != nil {
		return err
	}

	if err := s.service.Register(c.Request().Context(), input); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) me(c echo.Context) error {
	claims, err := accessClaims(c)
	if err != nil {
		return err
	}

	user, err := s.service.Status(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) forgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.normalize(); err != nil {
		return err
	}

	if err := s.service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) resetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.normalize(); err != nil {
		return err
	}

	if err := s.service.ResetPassword(c.Request().Context(), req.Hash, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) refresh(c echo.Context) error {
	claims, err := refreshClaims(c)
	if err != nil {
		return err
	}

	resp, err := s.service.Refresh(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) logout(c echo.Context) error {
	claims, err := refreshClaims(c)
	if err != nil {
		return err
	}

	if err := s.service.Logout(c.Request().Context(), claims); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
