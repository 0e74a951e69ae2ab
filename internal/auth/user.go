// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Role is the closed set of user roles.
type Role int

// Roles.
const (
	RoleStaff Role = iota
	RoleAdmin
	RoleManager
	RoleTrainer
)

// String returns the persisted name of the role.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	case RoleStaff:
		return "staff"
	case RoleTrainer:
		return "trainer"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleTrainer:
		return true
	default:
		return false
	}
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "manager":
		return RoleManager, nil
	case "staff":
		return RoleStaff, nil
	case "trainer":
		return RoleTrainer, nil
	default:
		return 0, oops.Code("AUTH_INVALID_ROLE").With("role", s).Errorf("unknown role %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, oops.Code("AUTH_INVALID_ROLE").With("role", int(r)).Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Status is the activation state of a user.
type Status int

// Statuses.
const (
	StatusInactive Status = iota
	StatusActive
)

// String returns the persisted name of the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive, nil
	case "inactive":
		return StatusInactive, nil
	default:
		return 0, oops.Code("AUTH_INVALID_STATUS").With("status", s).Errorf("unknown status %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, oops.Code("AUTH_INVALID_STATUS").With("status", int(s)).Errorf("invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// User is an account that can authenticate.
//
// Password holds either a stored hash (after load) or a new plaintext value
// assigned by the caller. PreparePassword turns the latter into a hash before
// the row is written.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       *string   `json:"email"`
	FullName    *string   `json:"fullName"`
	PhoneNumber *string   `json:"phoneNumber"`
	Salary      *float64  `json:"salary"`
	Password    string    `json:"-"`
	Status      Status    `json:"status"`
	Role        Role      `json:"role"`
	Hash        *string   `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	loadedPassword string
}

// MarkLoaded records the current password as the persisted value.
// Repositories call it after reading or writing a row.
func (u *User) MarkLoaded() {
	u.loadedPassword = u.Password
}

// PasswordChanged reports whether Password differs from the persisted value.
func (u *User) PasswordChanged() bool {
	return u.Password != "" && u.Password != u.loadedPassword
}

// PreparePassword hashes u.Password when it was changed since load.
// A password that still equals the persisted hash is left untouched.
func PreparePassword(u *User, hasher PasswordHasher) error {
	if u == nil {
		return oops.Code("AUTH_INVALID_USER").Errorf("user is nil")
	}
	if !u.PasswordChanged() {
		return nil
	}
	hashed, err := hasher.Hash(u.Password)
	if err != nil {
		return oops.With("operation", "hash password").With("user_id", u.ID).Wrap(err)
	}
	u.Password = hashed
	u.loadedPassword = hashed
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository manages user persistence.
type UserRepository interface {
	// FindByID returns the user or (nil, nil) when absent.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail returns the user or (nil, nil) when absent.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a new user, assigning ID and timestamps.
	// Returns an error wrapping ErrConflict on a duplicate username or email.
	Create(ctx context.Context, user *User) error

	// Save updates an existing user.
	// Returns an error wrapping ErrNotFound when the row does not exist.
	Save(ctx context.Context, user *User) error
}
