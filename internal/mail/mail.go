// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

// Package mail provides auth.MailSender implementations. Delivery itself is
// left to whatever consumes the published messages.
package mail

import "time"

// Kind names the template a mail is rendered with.
type Kind string

// Mail kinds.
const (
	KindConfirmRegister Kind = "confirm-register"
	KindForgotPassword  Kind = "forgot-password"
)

// RoutingKey is the AMQP routing key messages of kind are published under.
func (k Kind) RoutingKey() string {
	return "mail." + string(k)
}

// Message is the published representation of a mail request.
type Message struct {
	Kind   Kind      `json:"kind"`
	To     string    `json:"to"`
	Data   Data      `json:"data"`
	SentAt time.Time `json:"sentAt"`
}

// Data carries the template variables of a Message.
type Data struct {
	Hash string `json:"hash"`
}
