// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

// Package auth issues and validates gymdesk credentials.
//
// # Domain Types
//
//   - User - an account with a role and an activation status
//   - Session - the server-side record a token pair is bound to
//   - PasswordResetRequest - a single-use reset hash
//
// Sessions and reset requests are never hard-deleted. Revocation sets a
// DeletedAt tombstone and repositories hide tombstoned rows from lookups.
//
// # Passwords
//
// User.Password holds a stored hash after load. Assigning a plaintext value
// and saving the user hashes it through PreparePassword, which repositories
// call before every insert and update.
//
// # Tokens
//
// TokenIssuer signs an access token {id, sessionId} and a refresh token
// {sessionId} with separate secrets and lifetimes.
//
// # Services
//
// Service composes the repositories, the hasher, the token issuer and the
// mail sender into the login, register, status, forgot-password,
// reset-password, refresh and logout flows. Errors carry oops codes; see
// the Code* constants.
package auth
