package dto

import (
	"time"

	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// StreamMessageViews is the message type sent on the views stream.
const StreamMessageViews = "views"

// QuoteRequest identifies a quote by content in toggle and remove requests.
type QuoteRequest struct {
	Text   string `json:"text"   validate:"notempty,max=2000"`
	Author string `json:"author" validate:"max=500"`
}

// Quote converts the request to a domain quote.
func (r QuoteRequest) Quote() domain.Quote {
	return domain.Quote{Text: r.Text, Author: r.Author}
}

// SearchRequest holds the search query parameters.
type SearchRequest struct {
	Q string `form:"q" validate:"max=200"`
}

// CardResponse is one rendered quote.
type CardResponse struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Key    string `json:"key"`
	Marked bool   `json:"marked"`
	Action string `json:"action"`
}

// SearchViewResponse is the search results section.
type SearchViewResponse struct {
	Visible bool           `json:"visible"`
	Term    string         `json:"term"`
	Cards   []CardResponse `json:"cards"`
	Notice  string         `json:"notice,omitempty"`
}

// FavoritesViewResponse is the favorites section.
type FavoritesViewResponse struct {
	Visible bool           `json:"visible"`
	Cards   []CardResponse `json:"cards"`
}

// ViewsResponse carries both sections at one version.
type ViewsResponse struct {
	Version   uint64                `json:"version"`
	Search    SearchViewResponse    `json:"search"`
	Favorites FavoritesViewResponse `json:"favorites"`
}

// StatusResponse reports the quote cache state.
type StatusResponse struct {
	State     string `json:"state"`
	Quotes    int    `json:"quotes"`
	Favorites int    `json:"favorites"`
}

// StreamMessage is one frame on the views websocket.
type StreamMessage struct {
	Type      string        `json:"type"`
	Data      ViewsResponse `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewViewsResponse converts a board snapshot.
func NewViewsResponse(v app.Views) ViewsResponse {
	return ViewsResponse{
		Version: v.Version,
		Search: SearchViewResponse{
			Visible: v.Search.Visible,
			Term:    v.Search.Term,
			Cards:   newCards(v.Search.Cards),
			Notice:  v.Search.Notice,
		},
		Favorites: NewFavoritesViewResponse(v.Favorites),
	}
}

// NewFavoritesViewResponse converts the favorites section alone.
func NewFavoritesViewResponse(v app.FavoritesView) FavoritesViewResponse {
	return FavoritesViewResponse{
		Visible: v.Visible,
		Cards:   newCards(v.Cards),
	}
}

func newCards(cards []app.Card) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardResponse{
			Text:   c.Quote.Text,
			Author: c.Quote.Author,
			Key:    c.Key,
			Marked: c.Marked,
			Action: string(c.Affordance),
		})
	}

	return out
}
