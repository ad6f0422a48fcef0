package broker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Envelope is a received event.
type Envelope struct {
	Subject string
	Type    string
	Data    json.RawMessage
}

// Subscriber delivers every event under a subject prefix to a handler.
type Subscriber struct {
	log     *slog.Logger
	nc      *nats.Conn
	subject string
}

// NewSubscriber connects to addr and subscribes to "<subject>.>" on Start.
func NewSubscriber(log *slog.Logger, addr, subject string) (*Subscriber, error) {
	nc, err := Connect(log, addr, "quotebook-subscriber")
	if err != nil {
		return nil, err
	}

	log.Info("connected to broker", slog.String("addr", addr), slog.String("subject", subject))

	return &Subscriber{
		log:     log,
		nc:      nc,
		subject: subject,
	}, nil
}

// Close closes the connection.
func (s *Subscriber) Close() {
	s.nc.Close()
}

// Start subscribes and calls handle for each message until ctx is done.
// It blocks.
func (s *Subscriber) Start(ctx context.Context, handle func(Envelope)) error {
	ch := make(chan *nats.Msg, 10)

	sub, err := s.nc.ChanSubscribe(s.subject+".>", ch)
	if err != nil {
		return err
	}

	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Error("failed to unsubscribe", slog.String("subject", s.subject), slog.Any("error", err))
		}
		s.log.Debug("nats subscriber stopped", slog.String("subject", s.subject))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			handle(envelopeFrom(msg))
		}
	}
}

// envelopeFrom reads the event type from the header, falling back to the
// "type" field of the body.
func envelopeFrom(msg *nats.Msg) Envelope {
	env := Envelope{
		Subject: msg.Subject,
		Data:    json.RawMessage(msg.Data),
	}

	if msg.Header != nil {
		env.Type = msg.Header.Get(HeaderEventType)
	}

	if env.Type == "" {
		var body struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg.Data, &body); err == nil {
			env.Type = body.Type
		}
	}

	return env
}
