// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gymdesk/gymdesk/internal/auth"
	"github.com/gymdesk/gymdesk/pkg/errutil"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Status  int               `json:"status"`
	Errors  map[string]string `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`
}

// statusFor maps an error to its response. internal reports errors whose
// detail must not reach the client.
func statusFor(err error) (resp errorResponse, internal bool) {
	if fields := validationErrors(err); fields != nil {
		return errorResponse{Status: http.StatusUnprocessableEntity, Errors: fields}, false
	}
	if fields := auth.FieldErrors(err); fields != nil {
		return errorResponse{Status: http.StatusUnprocessableEntity, Errors: fields}, false
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		resp := errorResponse{Status: he.Code}
		if msg, ok := he.Message.(string); ok {
			resp.Message = msg
		}
		return resp, he.Code >= http.StatusInternalServerError
	}

	switch auth.ErrorCode(err) {
	case auth.CodeUnauthorized, auth.CodeInvalidToken:
		return errorResponse{Status: http.StatusUnauthorized}, false
	}

	switch {
	case errors.Is(err, auth.ErrConflict):
		return errorResponse{Status: http.StatusConflict}, false
	case errors.Is(err, auth.ErrNotFound):
		return errorResponse{Status: http.StatusNotFound}, false
	case errors.Is(err, context.DeadlineExceeded):
		return errorResponse{Status: http.StatusServiceUnavailable}, true
	default:
		return errorResponse{Status: http.StatusInternalServerError}, true
	}
}

func validationErrors(err error) map[string]string {
	var verr *validationError
	if !errors.As(err, &verr) {
		return nil
	}
	return verr.fields
}

// handleError is the echo HTTPErrorHandler.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp, internal := statusFor(err)
	req := c.Request()
	if internal {
		errutil.LogErrorContext(req.Context(), s.logger, "request failed", err,
			"method", req.Method,
			"route", c.Path(),
			"status", resp.Status,
		)
	} else {
		s.logger.DebugContext(req.Context(), "request rejected",
			"method", req.Method,
			"route", c.Path(),
			"status", resp.Status,
			"code", auth.ErrorCode(err),
		)
	}

	var writeErr error
	if req.Method == http.MethodHead {
		writeErr = c.NoContent(resp.Status)
	} else {
		writeErr = c.JSON(resp.Status, resp)
	}
	if writeErr != nil {
		s.logger.WarnContext(req.Context(), "failed to write error response", "error", writeErr)
	}
}
