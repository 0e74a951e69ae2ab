// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package mail

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/oops"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// DefaultExchange is the topic exchange mail messages are published to.
const DefaultExchange = "mail"

// channel is the part of *amqp.Channel the sender uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// connection opens channels. *amqp.Connection satisfies it through amqpConn.
type connection interface {
	Channel() (channel, error)
	Close() error
}

type amqpConn struct {
	*amqp.Connection
}

func (c amqpConn) Channel() (channel, error) {
	return c.Connection.Channel() //nolint:wrapcheck // wrapped by callers
}

// AMQPSender publishes mail requests as persistent JSON messages to a durable
// topic exchange.
type AMQPSender struct {
	conn     connection
	exchange string
	now      func() time.Time
}

// DialAMQP connects to url and declares exchange. An empty exchange selects
// DefaultExchange.
func DialAMQP(url, exchange string) (*AMQPSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, oops.Code("MAIL_CONNECT_FAILED").With("operation", "dial amqp").Wrap(err)
	}
	sender, err := newAMQPSender(amqpConn{conn}, exchange, time.Now)
	if err != nil {
		_ = conn.Close() //nolint:errcheck // setup error takes precedence
		return nil, err
	}
	return sender, nil
}

func newAMQPSender(conn connection, exchange string, now func() time.Time) (*AMQPSender, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, oops.Code("MAIL_CHANNEL_FAILED").With("operation", "open channel").Wrap(err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, oops.Code("MAIL_DECLARE_FAILED").With("exchange", exchange).Wrap(err)
	}
	return &AMQPSender{conn: conn, exchange: exchange, now: now}, nil
}

// ConfirmRegisterUser publishes an activation mail request.
func (s *AMQPSender) ConfirmRegisterUser(ctx context.Context, data auth.MailData) error {
	return s.publish(ctx, KindConfirmRegister, data)
}

// ForgotPassword publishes a password reset mail request.
func (s *AMQPSender) ForgotPassword(ctx context.Context, data auth.MailData) error {
	return s.publish(ctx, KindForgotPassword, data)
}

// Close closes the broker connection.
func (s *AMQPSender) Close() error {
	if err := s.conn.Close(); err != nil {
		return oops.Code("MAIL_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

func (s *AMQPSender) publish(ctx context.Context, kind Kind, data auth.MailData) error {
	sentAt := s.now().UTC()
	body, err := json.Marshal(Message{Kind: kind, To: data.To, Data: Data{Hash: data.Hash}, SentAt: sentAt})
	if err != nil {
		return oops.Code("MAIL_ENCODE_FAILED").With("kind", string(kind)).Wrap(err)
	}

	ch, err := s.conn.Channel()
	if err != nil {
		return oops.Code("MAIL_CHANNEL_FAILED").With("kind", string(kind)).Wrap(err)
	}
	defer func() { _ = ch.Close() }()

	err = ch.PublishWithContext(ctx, s.exchange, kind.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    sentAt,
		Type:         string(kind),
		Body:         body,
	})
	if err != nil {
		return oops.Code("MAIL_PUBLISH_FAILED").
			With("kind", string(kind)).
			With("exchange", s.exchange).
			Wrap(err)
	}
	return nil
}

var _ auth.MailSender = (*AMQPSender)(nil)
