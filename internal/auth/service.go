// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Operation names reported to the MetricsRecorder.
const (
	OpLogin          = "login"
	OpRegister       = "register"
	OpStatus         = "status"
	OpForgotPassword = "forgot_password"
	OpResetPassword  = "reset_password"
	OpRefresh        = "refresh"
	OpLogout         = "logout"
)

// ServiceDeps are the collaborators of a Service.
// Metrics and Clock are optional.
type ServiceDeps struct {
	Users    UserRepository
	Sessions SessionRepository
	Resets   PasswordResetRepository
	Hasher   PasswordHasher
	Tokens   *TokenIssuer
	Mailer   MailSender
	Metrics  MetricsRecorder
	Clock    func() time.Time
}

// Service orchestrates the credential flows.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	resets   PasswordResetRepository
	hasher   PasswordHasher
	tokens   *TokenIssuer
	mailer   MailSender
	metrics  MetricsRecorder
	now      func() time.Time
	logger   *slog.Logger
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	TokenPair
	User *User `json:"user"`
}

// RefreshResponse is returned by a successful refresh.
type RefreshResponse struct {
	TokenPair
}

// RegisterInput carries a validated registration request.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName *string
	Role     Role
}

// NewService creates a Service that logs to slog.Default().
func NewService(deps ServiceDeps) (*Service, error) {
	return NewServiceWithLogger(deps, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(deps ServiceDeps, logger *slog.Logger) (*Service, error) {
	switch {
	case deps.Users == nil:
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("users repository is required")
	case deps.Sessions == nil:
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("sessions repository is required")
	case deps.Resets == nil:
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password resets repository is required")
	case deps.Hasher == nil:
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password hasher is required")
	case deps.Tokens == nil:
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("token issuer is required")
	case deps.Mailer == nil:
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("mail sender is required")
	case logger == nil:
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("logger is required")
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}

	return &Service{
		users:    deps.Users,
		sessions: deps.Sessions,
		resets:   deps.Resets,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		mailer:   deps.Mailer,
		metrics:  metrics,
		now:      now,
		logger:   logger,
	}, nil
}

// Login checks the credentials, opens a session and returns a token pair
// bound to it. No session is created when the credentials are rejected.
func (s *Service) Login(ctx context.Context, email, password string) (_ *LoginResponse, err error) {
	defer func() { s.observe(OpLogin, err) }()

	email = NormalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, oops.With("operation", "find user by email").Wrap(err)
	}
	if user == nil {
		return nil, Unprocessable("email", ReasonNotFound)
	}

	if !s.hasher.Verify(password, user.Password) {
		return nil, Unprocessable("password", ReasonIncorrectPassword)
	}

	if s.hasher.NeedsUpgrade(user.Password) {
		s.upgradePassword(ctx, user, password)
	}

	now := s.now()
	session, err := NewSession(user.ID, now)
	if err != nil {
		return nil, oops.With("operation", "new session").Wrap(err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, oops.With("operation", "create session").With("user_id", user.ID).Wrap(err)
	}

	pair, err := s.tokens.Issue(ctx, user.ID, session.ID, now)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "user logged in",
		"user_id", user.ID,
		"session_id", session.ID.String(),
	)
	return &LoginResponse{TokenPair: *pair, User: user}, nil
}

// upgradePassword rehashes a verified password with the configured algorithm.
// Failures are logged; the login still succeeds.
func (s *Service) upgradePassword(ctx context.Context, user *User, password string) {
	previous := user.Password
	user.Password = password
	if err := s.users.Save(ctx, user); err != nil {
		user.Password = previous
		user.MarkLoaded()
		s.logger.WarnContext(ctx, "failed to upgrade password hash",
			"user_id", user.ID,
			"error", err,
		)
	}
}

// Register creates an inactive user and sends the activation mail.
// Duplicate usernames or emails surface as the repository's conflict error.
func (s *Service) Register(ctx context.Context, input RegisterInput) (err error) {
	defer func() { s.observe(OpRegister, err) }()

	hash, err := GenerateHash()
	if err != nil {
		return oops.With("operation", "generate activation hash").Wrap(err)
	}

	email := NormalizeEmail(input.Email)
	user := &User{
		Username: input.Username,
		Email:    &email,
		FullName: input.FullName,
		Password: input.Password,
		Status:   StatusInactive,
		Role:     input.Role,
		Hash:     &hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return oops.With("operation", "create user").With("username", input.Username).Wrap(err)
	}

	s.sendMail(ctx, "confirm_register", user.ID, func() error {
		return s.mailer.ConfirmRegisterUser(ctx, MailData{To: email, Hash: hash})
	})
	return nil
}

// Status returns the user named by the access token, or nil when it no longer exists.
func (s *Service) Status(ctx context.Context, claims *AccessClaims) (_ *User, err error) {
	defer func() { s.observe(OpStatus, err) }()

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, oops.With("operation", "find user by id").With("user_id", claims.UserID).Wrap(err)
	}
	return user, nil
}

// ForgotPassword records a reset request and mails its hash to the user.
func (s *Service) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.observe(OpForgotPassword, err) }()

	email = NormalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return oops.With("operation", "find user by email").Wrap(err)
	}
	if user == nil {
		return Unprocessable("email", ReasonEmailNotExists)
	}

	hash, err := GenerateHash()
	if err != nil {
		return oops.With("operation", "generate reset hash").Wrap(err)
	}
	request, err := NewPasswordResetRequest(user.ID, hash, s.now())
	if err != nil {
		return oops.With("operation", "new reset request").Wrap(err)
	}
	if err := s.resets.Create(ctx, request); err != nil {
		return oops.With("operation", "create reset request").With("user_id", user.ID).Wrap(err)
	}

	s.sendMail(ctx, "forgot_password", user.ID, func() error {
		return s.mailer.ForgotPassword(ctx, MailData{To: email, Hash: hash})
	})
	return nil
}

// ResetPassword consumes a reset hash and replaces the user's password.
// Every session of the user is revoked before the new password is stored,
// and the request is consumed last.
func (s *Service) ResetPassword(ctx context.Context, hash, password string) (err error) {
	defer func() { s.observe(OpResetPassword, err) }()

	request, err := s.resets.FindByHash(ctx, hash)
	if err != nil {
		return oops.With("operation", "find reset request").Wrap(err)
	}
	if request == nil {
		return Unprocessable("hash", ReasonNotFound)
	}

	user, err := s.users.FindByID(ctx, request.UserID)
	if err != nil {
		return oops.With("operation", "find user by id").With("user_id", request.UserID).Wrap(err)
	}
	if user == nil {
		return oops.Code("USER_NOT_FOUND").With("user_id", request.UserID).Wrap(ErrNotFound)
	}

	user.Password = password

	if err := s.sessions.SoftDeleteByUser(ctx, user.ID); err != nil {
		return oops.With("operation", "revoke user sessions").With("user_id", user.ID).Wrap(err)
	}
	if err := s.users.Save(ctx, user); err != nil {
		return oops.With("operation", "save user").With("user_id", user.ID).Wrap(err)
	}
	if err := s.resets.SoftDelete(ctx, request.ID); err != nil {
		return oops.With("operation", "consume reset request").With("request_id", request.ID.String()).Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}

// Refresh issues a new token pair for the live session named by the refresh token.
func (s *Service) Refresh(ctx context.Context, claims *RefreshClaims) (_ *RefreshResponse, err error) {
	defer func() { s.observe(OpRefresh, err) }()

	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, oops.With("operation", "find session").With("session_id", claims.SessionID.String()).Wrap(err)
	}
	if session == nil {
		return nil, oops.Code(CodeUnauthorized).Errorf("session is not active")
	}

	pair, err := s.tokens.Issue(ctx, session.UserID, session.ID, s.now())
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{TokenPair: *pair}, nil
}

// Logout revokes the session named by the refresh token.
func (s *Service) Logout(ctx context.Context, claims *RefreshClaims) (err error) {
	defer func() { s.observe(OpLogout, err) }()

	if err := s.sessions.SoftDelete(ctx, claims.SessionID); err != nil {
		return oops.With("operation", "revoke session").With("session_id", claims.SessionID.String()).Wrap(err)
	}
	return nil
}

// sendMail dispatches a mail after the store mutation has committed.
// Delivery failures are logged and never returned.
func (s *Service) sendMail(ctx context.Context, kind string, userID int64, send func() error) {
	if err := send(); err != nil {
		s.logger.WarnContext(ctx, "failed to send mail",
			"kind", kind,
			"user_id", userID,
			"code", ErrorCode(err),
			"error", err,
		)
	}
}

func (s *Service) observe(operation string, err error) {
	switch code := ErrorCode(err); {
	case err == nil:
		s.metrics.RecordOperation(operation, OutcomeSuccess)
	case code == CodeUnprocessable || code == CodeUnauthorized:
		s.metrics.RecordOperation(operation, OutcomeRejected)
	default:
		s.metrics.RecordOperation(operation, OutcomeError)
	}
}
