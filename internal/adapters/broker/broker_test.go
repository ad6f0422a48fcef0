package broker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

type fakeConn struct {
	published  []*nats.Msg
	publishErr error
	flushErr   error
	connected  bool
	closed     bool
}

func (c *fakeConn) PublishMsg(msg *nats.Msg) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeConn) FlushWithContext(context.Context) error { return c.flushErr }
func (c *fakeConn) IsConnected() bool                      { return c.connected }
func (c *fakeConn) Close()                                 { c.closed = true }

type testEvent struct {
	typ     string
	payload any
}

func (e testEvent) EventType() string { return e.typ }
func (e testEvent) Payload() any      { return e.payload }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_Publish(t *testing.T) {
	nc := &fakeConn{connected: true}
	p := newPublisher(discard(), nc, "quotebook.favorites")

	err := p.Publish(context.Background(), testEvent{
		typ:     "favorite.added",
		payload: map[string]any{"type": "favorite.added", "count": 1},
	})

	require.NoError(t, err)
	require.Len(t, nc.published, 1)

	msg := nc.published[0]
	assert.Equal(t, "quotebook.favorites.favorite.added", msg.Subject)
	assert.Equal(t, "favorite.added", msg.Header.Get(HeaderEventType))
	assert.JSONEq(t, `{"type":"favorite.added","count":1}`, string(msg.Data))
}

func TestPublisher_PublishErrors(t *testing.T) {
	event := testEvent{typ: "favorites.cleared", payload: map[string]int{"count": 0}}

	t.Run("publish failure", func(t *testing.T) {
		p := newPublisher(discard(), &fakeConn{publishErr: nats.ErrConnectionClosed}, "q")

		err := p.Publish(context.Background(), event)

		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})

	t.Run("flush failure", func(t *testing.T) {
		p := newPublisher(discard(), &fakeConn{flushErr: errors.New("timeout")}, "q")

		err := p.Publish(context.Background(), event)

		require.ErrorIs(t, err, domain.ErrUnavailable)
		assert.Contains(t, err.Error(), "flush")
	})

	t.Run("unencodable payload", func(t *testing.T) {
		nc := &fakeConn{}
		p := newPublisher(discard(), nc, "q")

		err := p.Publish(context.Background(), testEvent{typ: "bad", payload: make(chan int)})

		require.Error(t, err)
		assert.Empty(t, nc.published)
	})
}

func TestPublisher_HealthAndClose(t *testing.T) {
	nc := &fakeConn{connected: false}
	p := newPublisher(discard(), nc, "q")

	assert.Equal(t, "nats", p.Name())
	assert.Error(t, p.Check(context.Background()))

	nc.connected = true
	assert.NoError(t, p.Check(context.Background()))

	p.Close()
	assert.True(t, nc.closed)
}

func TestEnvelopeFrom(t *testing.T) {
	t.Run("type from header", func(t *testing.T) {
		msg := nats.NewMsg("quotebook.favorites.favorite.removed")
		msg.Header.Set(HeaderEventType, "favorite.removed")
		msg.Data = []byte(`{"count":0}`)

		env := envelopeFrom(msg)

		assert.Equal(t, "favorite.removed", env.Type)
		assert.Equal(t, "quotebook.favorites.favorite.removed", env.Subject)
		assert.JSONEq(t, `{"count":0}`, string(env.Data))
	})

	t.Run("type from body", func(t *testing.T) {
		env := envelopeFrom(&nats.Msg{
			Subject: "quotebook.favorites.favorites.cleared",
			Data:    []byte(`{"type":"favorites.cleared","count":0}`),
		})

		assert.Equal(t, "favorites.cleared", env.Type)
	})

	t.Run("opaque body", func(t *testing.T) {
		env := envelopeFrom(&nats.Msg{Subject: "x", Data: []byte("not json")})

		assert.Empty(t, env.Type)
	})
}
