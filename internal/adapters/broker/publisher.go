// Package broker publishes favorites events to NATS and reads them back.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

const (
	// HeaderEventType carries the event type alongside the JSON body.
	HeaderEventType = "Quotebook-Event-Type"

	serviceName = "nats"

	reconnectWait = 2 * time.Second
)

var _ ports.EventPublisher = (*Publisher)(nil)

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	IsConnected() bool
	Close()
}

// Publisher sends events to "<subject>.<event type>".
type Publisher struct {
	log     *slog.Logger
	nc      conn
	subject string
}

// Connect dials the broker with reconnects enabled.
func Connect(log *slog.Logger, addr, clientName string) (*nats.Conn, error) {
	nc, err := nats.Connect(addr,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("disconnected from broker", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("reconnected to broker", slog.String("url", c.ConnectedUrlRedacted()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}

	return nc, nil
}

// NewPublisher connects to addr and returns a publisher for subject.
func NewPublisher(log *slog.Logger, addr, subject string) (*Publisher, error) {
	nc, err := Connect(log, addr, "quotebook-publisher")
	if err != nil {
		return nil, err
	}

	log.Info("connected to broker", slog.String("addr", addr), slog.String("subject", subject))

	return newPublisher(log, nc, subject), nil
}

func newPublisher(log *slog.Logger, nc conn, subject string) *Publisher {
	return &Publisher{
		log:     log,
		nc:      nc,
		subject: subject,
	}
}

// Close closes the connection.
func (p *Publisher) Close() {
	p.nc.Close()
}

// Publish encodes the event payload as JSON and waits for the server to
// acknowledge the flush.
func (p *Publisher) Publish(ctx context.Context, event ports.Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.EventType(), err)
	}

	msg := nats.NewMsg(p.SubjectFor(event.EventType()))
	msg.Header.Set(HeaderEventType, event.EventType())
	msg.Data = data

	if err := p.nc.PublishMsg(msg); err != nil {
		return domain.NewUnavailableError(serviceName, err.Error())
	}

	if err := p.nc.FlushWithContext(ctx); err != nil {
		return domain.NewUnavailableError(serviceName, "flush: "+err.Error())
	}

	p.log.DebugContext(ctx, "event published",
		slog.String("subject", msg.Subject),
		slog.String("type", event.EventType()),
	)

	return nil
}

// SubjectFor returns the subject an event type is published on.
func (p *Publisher) SubjectFor(eventType string) string {
	return p.subject + "." + eventType
}

// Name implements ports.HealthChecker.
func (p *Publisher) Name() string {
	return serviceName
}

// Check implements ports.HealthChecker.
func (p *Publisher) Check(_ context.Context) error {
	if !p.nc.IsConnected() {
		return errors.New("not connected to broker")
	}

	return nil
}

// NonCritical implements ports.NonCritical. Events are best effort.
func (p *Publisher) NonCritical() bool {
	return true
}
