// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package auth

import "context"

// MailData is the payload of an outgoing account mail.
type MailData struct {
	To   string
	Hash string
}

// MailSender delivers account mails.
type MailSender interface {
	// ConfirmRegisterUser sends the activation link to a new user.
	ConfirmRegisterUser(ctx context.Context, data MailData) error

	// ForgotPassword sends the password reset link.
	ForgotPassword(ctx context.Context, data MailData) error
}

// MetricsRecorder counts orchestrator outcomes.
type MetricsRecorder interface {
	RecordOperation(operation, outcome string)
}

// Operation outcomes reported to a MetricsRecorder.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type noopMetrics struct{}

func (noopMetrics) RecordOperation(string, string) {}
