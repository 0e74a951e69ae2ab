// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with a unique constraint.
var ErrConflict = errors.New("conflict")

// Error codes attached to oops errors produced by this package.
const (
	CodeUnprocessable = "AUTH_UNPROCESSABLE"
	CodeUnauthorized  = "AUTH_UNAUTHORIZED"
	CodeInvalidToken  = "AUTH_INVALID_TOKEN"
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeUserConflict  = "USER_CONFLICT"
)

// Field error reasons reported with CodeUnprocessable.
const (
	ReasonNotFound          = "notFound"
	ReasonIncorrectPassword = "incorrectPassword"
	ReasonEmailNotExists    = "emailNotExists"
)

// Unprocessable builds a validation-style error naming the offending field.
func Unprocessable(field, reason string) error {
	return oops.Code(CodeUnprocessable).
		With("field", field).
		With("reason", reason).
		Errorf("%s: %s", field, reason)
}

// FieldErrors extracts the {field: reason} map carried by an unprocessable error.
// It returns nil for any other error.
func FieldErrors(err error) map[string]string {
	oopsErr, ok := oops.AsOops(err)
	if !ok || oopsErr.Code() != CodeUnprocessable {
		return nil
	}
	ctx := oopsErr.Context()
	field, _ := ctx["field"].(string)
	reason, _ := ctx["reason"].(string)
	if field == "" {
		return nil
	}
	return map[string]string{field: reason}
}

// ErrorCode returns the oops code carried by err, or "" when there is none.
func ErrorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}
