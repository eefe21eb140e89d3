// Package publisher fans committed messages out to the realtime delivery tier over NATS.
//
// Each message is published as JSON on chat.conversation.<id> or chat.group.<id>. Delivery is
// best effort: a circuit breaker stops publishing while NATS is failing and lets a probe
// through after the cooldown.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"fellowship/internal/chat"
	"fellowship/internal/message/models"
	"fellowship/pkg/platform/circuit"
)

const subjectPrefix = "chat"

// ErrCircuitOpen is returned while the breaker rejects publishes.
var ErrCircuitOpen = errors.New("message publisher circuit open")

// Conn is the publishing half of a NATS connection.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Subject names the NATS subject for a chat.
func Subject(target chat.Ref) string {
	return subjectPrefix + "." + string(target.Kind()) + "." + refID(target)
}

func refID(target chat.Ref) string {
	switch t := target.(type) {
	case chat.ConversationRef:
		return t.ID.String()
	case chat.GroupRef:
		return t.ID.String()
	}
	return ""
}

type NATSPublisher struct {
	conn    Conn
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*NATSPublisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *NATSPublisher) {
		p.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *NATSPublisher) {
		p.breaker = b
	}
}

func New(conn Conn, opts ...Option) *NATSPublisher {
	p := &NATSPublisher{
		conn:    conn,
		breaker: circuit.New("nats", circuit.WithFailureThreshold(5), circuit.WithCooldown(10*time.Second)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends the message envelope to its chat subject.
func (p *NATSPublisher) Publish(_ context.Context, m *models.Message) error {
	if !p.breaker.Allow() {
		return ErrCircuitOpen
	}
	data, err := json.Marshal(models.NewMessageResponse(m))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	subject := Subject(m.Target)
	if err := p.conn.Publish(subject, data); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.Warn("message publisher circuit opened", "subject", subject, "error", err)
		}
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.Info("message publisher circuit closed")
	}
	p.logger.Debug("published message", "subject", subject, "message_id", m.ID.String())
	return nil
}

// Connect dials NATS with reconnect handling. An empty url returns nil, nil so callers can run
// without fan-out.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("fellowship"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("disconnected from nats", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to nats", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("nats connection closed")
		}),
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}
