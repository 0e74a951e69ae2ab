// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package mail

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// LogSender records mail intents in the log instead of sending them. The
// hash is never logged.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender writing to logger.
func NewLogSender(logger *slog.Logger) (*LogSender, error) {
	if logger == nil {
		return nil, oops.Code("MAIL_INVALID_SENDER").Errorf("logger is required")
	}
	return &LogSender{logger: logger}, nil
}

// ConfirmRegisterUser logs an activation mail.
func (s *LogSender) ConfirmRegisterUser(ctx context.Context, data auth.MailData) error {
	s.log(ctx, KindConfirmRegister, data)
	return nil
}

// ForgotPassword logs a password reset mail.
func (s *LogSender) ForgotPassword(ctx context.Context, data auth.MailData) error {
	s.log(ctx, KindForgotPassword, data)
	return nil
}

func (s *LogSender) log(ctx context.Context, kind Kind, data auth.MailData) {
	s.logger.InfoContext(ctx, "mail queued", "kind", string(kind), "to", data.To)
}

var _ auth.MailSender = (*LogSender)(nil)
