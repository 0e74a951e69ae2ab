// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// MockPasswordHasher is a mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// NewMockPasswordHasher creates a mock that asserts its expectations on cleanup.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, hash string) bool {
	return m.Called(password, hash).Bool(0)
}

// NeedsUpgrade provides a mock function.
func (m *MockPasswordHasher) NeedsUpgrade(hash string) bool {
	return m.Called(hash).Bool(0)
}

// MockMailSender is a mock of auth.MailSender.
type MockMailSender struct {
	mock.Mock
}

var _ auth.MailSender = (*MockMailSender)(nil)

// NewMockMailSender creates a mock that asserts its expectations on cleanup.
func NewMockMailSender(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMailSender {
	m := &MockMailSender{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ConfirmRegisterUser provides a mock function.
func (m *MockMailSender) ConfirmRegisterUser(ctx context.Context, data auth.MailData) error {
	return m.Called(ctx, data).Error(0)
}

// ForgotPassword provides a mock function.
func (m *MockMailSender) ForgotPassword(ctx context.Context, data auth.MailData) error {
	return m.Called(ctx, data).Error(0)
}

// MockMetricsRecorder is a mock of auth.MetricsRecorder.
type MockMetricsRecorder struct {
	mock.Mock
}

var _ auth.MetricsRecorder = (*MockMetricsRecorder)(nil)

// NewMockMetricsRecorder creates a mock that asserts its expectations on cleanup.
func NewMockMetricsRecorder(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMetricsRecorder {
	m := &MockMetricsRecorder{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// RecordOperation provides a mock function.
func (m *MockMetricsRecorder) RecordOperation(operation, outcome string) {
	m.Called(operation, outcome)
}
