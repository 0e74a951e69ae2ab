// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package httpapi

import (
	"net/mail"
	"sort"
	"strings"

	"github.com/samber/oops"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// minPasswordLength applies to passwords chosen at register and reset.
const minPasswordLength = 6

// Validation reasons reported per field.
const (
	reasonIsNotEmpty = "isNotEmpty"
	reasonIsEmail    = "isEmail"
	reasonMinLength  = "minLength"
	reasonIsEnum     = "isEnum"
)

// codeValidation marks request bodies rejected before reaching the service.
const codeValidation = "REQUEST_INVALID"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Hash     string `json:"hash"`
	Password string `json:"password"`
}

// validationError carries the rejected fields of a request body.
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string {
	fields := make([]string, 0, len(e.fields))
	for field := range e.fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "invalid request: " + strings.Join(fields, ", ")
}

// fieldErrors collects the first failure per field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, reason string) {
	if _, seen := f[field]; !seen {
		f[field] = reason
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return oops.Code(codeValidation).Wrap(&validationError{fields: f})
}

func (f fieldErrors) email(value string) {
	switch {
	case value == "":
		f.add("email", reasonIsNotEmpty)
	case !validEmail(value):
		f.add("email", reasonIsEmail)
	}
}

func (f fieldErrors) password(value string) {
	if len([]rune(value)) < minPasswordLength {
		f.add("password", reasonMinLength)
	}
}

func (f fieldErrors) notEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		f.add(field, reasonIsNotEmpty)
	}
}

// validEmail accepts a bare address, not a display-name form.
func validEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

func (r *loginRequest) normalize() error {
	r.Email = auth.NormalizeEmail(r.Email)
	errs := fieldErrors{}
	errs.notEmpty("email", r.Email)
	errs.notEmpty("password", r.Password)
	return errs.err()
}

func (r *registerRequest) input() (auth.RegisterInput, error) {
	r.Email = auth.NormalizeEmail(r.Email)
	errs := fieldErrors{}
	errs.email(r.Email)
	errs.notEmpty("username", r.Username)
	errs.password(r.Password)
	errs.notEmpty("fullName", r.FullName)

	var role auth.Role
	if strings.TrimSpace(r.Role) == "" {
		errs.add("role", reasonIsNotEmpty)
	} else if parsed, err := auth.ParseRole(r.Role); err != nil {
		errs.add("role", reasonIsEnum)
	} else {
		role = parsed
	}

	if err := errs.err(); err != nil {
		return auth.RegisterInput{}, err
	}
	fullName := strings.TrimSpace(r.FullName)
	return auth.RegisterInput{
		Email:    r.Email,
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		FullName: &fullName,
		Role:     role,
	}, nil
}

func (r *forgotPasswordRequest) normalize() error {
	r.Email = auth.NormalizeEmail(r.Email)
	errs := fieldErrors{}
	errs.email(r.Email)
	return errs.err()
}

func (r *resetPasswordRequest) normalize() error {
	r.Hash = strings.TrimSpace(r.Hash)
	errs := fieldErrors{}
	errs.notEmpty("hash", r.Hash)
	errs.password(r.Password)
	return errs.err()
}
