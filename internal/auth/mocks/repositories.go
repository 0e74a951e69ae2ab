// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

// Package mocks provides testify mocks for the auth collaborators.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// MockUserRepository is a mock of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

var _ auth.UserRepository = (*MockUserRepository)(nil)

// NewMockUserRepository creates a mock that asserts its expectations on cleanup.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// FindByID provides a mock function.
func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// FindByEmail provides a mock function.
func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// Create provides a mock function.
func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

// Save provides a mock function.
func (m *MockUserRepository) Save(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

// MockSessionRepository is a mock of auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

var _ auth.SessionRepository = (*MockSessionRepository)(nil)

// NewMockSessionRepository creates a mock that asserts its expectations on cleanup.
func NewMockSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	return m.Called(ctx, session).Error(0)
}

// FindByID provides a mock function.
func (m *MockSessionRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.Session, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

// SoftDelete provides a mock function.
func (m *MockSessionRepository) SoftDelete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

// SoftDeleteByUser provides a mock function.
func (m *MockSessionRepository) SoftDeleteByUser(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

// MockPasswordResetRepository is a mock of auth.PasswordResetRepository.
type MockPasswordResetRepository struct {
	mock.Mock
}

var _ auth.PasswordResetRepository = (*MockPasswordResetRepository)(nil)

// NewMockPasswordResetRepository creates a mock that asserts its expectations on cleanup.
func NewMockPasswordResetRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordResetRepository {
	m := &MockPasswordResetRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockPasswordResetRepository) Create(ctx context.Context, request *auth.PasswordResetRequest) error {
	return m.Called(ctx, request).Error(0)
}

// FindByHash provides a mock function.
func (m *MockPasswordResetRepository) FindByHash(ctx context.Context, hash string) (*auth.PasswordResetRequest, error) {
	args := m.Called(ctx, hash)
	request, _ := args.Get(0).(*auth.PasswordResetRequest)
	return request, args.Error(1)
}

// SoftDelete provides a mock function.
func (m *MockPasswordResetRepository) SoftDelete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}
