// Package ports holds the interfaces the app layer needs from the outside:
// the quote source, the favorites slot, event publishing, feature flags and
// health checks. Every method takes a context first and speaks domain types
// and domain errors only.
package ports

import (
	"context"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// QuoteSource supplies the quote collection. It is consulted once at
// startup and never retried.
type QuoteSource interface {
	// FetchQuotes retrieves every available quote in source order.
	// A response without a quote list yields an empty slice.
	// Returns domain.ErrUnavailable if the source is unreachable or
	// answers with a failure status.
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)
}

// KeyValueStore is a durable string-keyed slot store.
// Favorites live under a single key as one serialized value.
type KeyValueStore interface {
	// Get retrieves the value stored under key.
	// Returns domain.ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key entirely.
	// Does not return an error if the key does not exist.
	Delete(ctx context.Context, key string) error
}

// EventPublisher announces favorites changes. Callers treat failures as
// best effort.
type EventPublisher interface {
	// Publish returns domain.ErrUnavailable when the broker cannot be reached.
	Publish(ctx context.Context, event Event) error
}

// Event is a publishable change. EventType doubles as the routing suffix.
type Event interface {
	EventType() string
	Payload() any
}
