package app

import (
	"time"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// Favorites event types.
const (
	EventFavoriteAdded    = "favorite.added"
	EventFavoriteRemoved  = "favorite.removed"
	EventFavoritesCleared = "favorites.cleared"
)

// FavoriteEvent reports a change to the favorites set.
type FavoriteEvent struct {
	Type       string
	Quote      *domain.Quote
	Count      int
	OccurredAt time.Time
}

// FavoriteEventPayload is the serialized form of a FavoriteEvent.
type FavoriteEventPayload struct {
	Type       string    `json:"type"`
	Text       string    `json:"text,omitempty"`
	Author     string    `json:"author,omitempty"`
	Key        string    `json:"key,omitempty"`
	Count      int       `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventType implements ports.Event.
func (e FavoriteEvent) EventType() string {
	return e.Type
}

// Payload implements ports.Event.
func (e FavoriteEvent) Payload() any {
	p := FavoriteEventPayload{
		Type:       e.Type,
		Count:      e.Count,
		OccurredAt: e.OccurredAt,
	}

	if e.Quote != nil {
		p.Text = e.Quote.Text
		p.Author = e.Quote.Author
		p.Key = e.Quote.Key()
	}

	return p
}
