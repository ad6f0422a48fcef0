package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// NoQuotesNotice is shown in the search view when a search matches nothing.
const NoQuotesNotice = "No quotes found"

// Affordance is the action a card offers.
type Affordance string

const (
	// AffordanceToggle marks or unmarks a search result.
	AffordanceToggle Affordance = "toggle"

	// AffordanceRemove removes a card from the favorites view.
	AffordanceRemove Affordance = "remove"
)

// Card is one rendered quote.
type Card struct {
	Quote      domain.Quote
	Key        string
	Marked     bool
	Affordance Affordance
}

// SearchView is the rendered search results section.
// It stays hidden until the first search.
type SearchView struct {
	Visible bool
	Term    string
	Cards   []Card
	Notice  string
}

// FavoritesView is the rendered favorites section.
// It is hidden whenever the favorites set is empty.
type FavoritesView struct {
	Visible bool
	Cards   []Card
}

// Views is a consistent snapshot of both sections.
// Version increases by one with every change.
type Views struct {
	Version   uint64
	Search    SearchView
	Favorites FavoritesView
}

// Board keeps the search and favorites views consistent with the
// favorites store. Each operation holds one lock across its whole
// read-modify-persist-render cycle, so operations never interleave.
type Board struct {
	search    *SearchEngine
	favorites *FavoritesStore
	flags     ports.FeatureFlags
	publisher ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	searched bool
	term     string
	results  []domain.Quote
	marks    []bool
	version  uint64
	subs     map[int]chan Views
	nextSub  int
}

// BoardConfig contains configuration for the board.
// Flags and Publisher are optional.
type BoardConfig struct {
	Search    *SearchEngine
	Favorites *FavoritesStore
	Flags     ports.FeatureFlags
	Publisher ports.EventPublisher
	Logger    *slog.Logger
}

// NewBoard creates a board with an empty, hidden search view.
func NewBoard(cfg BoardConfig) *Board {
	if cfg.Search == nil || cfg.Favorites == nil {
		panic("app: board requires a search engine and a favorites store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		search:    cfg.Search,
		favorites: cfg.Favorites,
		flags:     cfg.Flags,
		publisher: cfg.Publisher,
		logger:    logger.With(slog.String("component", "app.Board")),
		now:       time.Now,
		subs:      make(map[int]chan Views),
	}
}

// Search runs a search and replaces the search view with its results.
// When the catalog is not loaded it returns domain.ErrNotReady and leaves
// both views untouched.
func (b *Board) Search(ctx context.Context, term string) (Views, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	results, err := b.search.Search(ctx, term)
	if err != nil {
		return Views{}, err
	}

	b.searched = true
	b.term = term
	b.results = results
	b.marks = make([]bool, len(results))

	for i, q := range results {
		b.marks[i] = b.favorites.Contains(q)
	}

	return b.changed(), nil
}

// Toggle flips the marked state of q as shown in the search view.
// A marked card is removed from favorites; an unmarked one is added.
// Quotes not in the search view use their favorites membership.
func (b *Board) Toggle(ctx context.Context, q domain.Quote) (Views, error) {
	b.mu.Lock()

	var (
		event FavoriteEvent
		err   error
	)

	if b.markedLocked(q) {
		err = b.favorites.Remove(ctx, q)
		event = b.event(EventFavoriteRemoved, &q)
	} else {
		err = b.favorites.Add(ctx, q)
		event = b.event(EventFavoriteAdded, &q)
	}

	if err != nil {
		b.mu.Unlock()

		return Views{}, fmt.Errorf("toggling favorite: %w", err)
	}

	b.markLocked(q, event.Type == EventFavoriteAdded)
	views := b.changed()
	b.mu.Unlock()

	b.publish(ctx, event)

	return views, nil
}

// Remove unmarks q from the favorites view. Every search card with an
// equal quote becomes unmarked, and the favorites view hides when empty.
func (b *Board) Remove(ctx context.Context, q domain.Quote) (Views, error) {
	b.mu.Lock()

	err := b.favorites.Remove(ctx, q)
	if err != nil {
		b.mu.Unlock()

		return Views{}, fmt.Errorf("removing favorite: %w", err)
	}

	b.markLocked(q, false)
	views := b.changed()
	event := b.event(EventFavoriteRemoved, &q)
	b.mu.Unlock()

	b.publish(ctx, event)

	return views, nil
}

// ClearAll deletes every favorite and hides the favorites view.
//
// Search cards keep their marks unless ports.FlagClearResetsSearchMarks is
// enabled. A card left marked this way unmarks on its next toggle.
func (b *Board) ClearAll(ctx context.Context) (Views, error) {
	b.mu.Lock()

	err := b.favorites.Clear(ctx)
	if err != nil {
		b.mu.Unlock()

		return Views{}, fmt.Errorf("clearing favorites: %w", err)
	}

	if b.flags != nil && b.flags.IsEnabled(ctx, ports.FlagClearResetsSearchMarks, false) {
		for i := range b.marks {
			b.marks[i] = false
		}
	}

	views := b.changed()
	event := b.event(EventFavoritesCleared, nil)
	b.mu.Unlock()

	b.publish(ctx, event)

	return views, nil
}

// Snapshot returns the current views without changing anything.
func (b *Board) Snapshot() Views {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.renderLocked()
}

// Subscribe returns a channel receiving a fresh snapshot after every
// change. Slow readers only see the latest snapshot. Call cancel to stop.
func (b *Board) Subscribe() (updates <-chan Views, cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++

	ch := make(chan Views, 1)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *Board) markedLocked(q domain.Quote) bool {
	for i, r := range b.results {
		if r.Equal(q) {
			return b.marks[i]
		}
	}

	return b.favorites.Contains(q)
}

func (b *Board) markLocked(q domain.Quote, marked bool) {
	for i, r := range b.results {
		if r.Equal(q) {
			b.marks[i] = marked
		}
	}
}

// changed bumps the version, renders and notifies subscribers.
func (b *Board) changed() Views {
	b.version++
	views := b.renderLocked()

	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}

		ch <- views
	}

	return views
}

// renderLocked derives both views from the current state.
func (b *Board) renderLocked() Views {
	search := SearchView{
		Visible: b.searched,
		Term:    b.term,
		Cards:   make([]Card, 0, len(b.results)),
	}

	for i, q := range b.results {
		search.Cards = append(search.Cards, Card{
			Quote:      q,
			Key:        q.Key(),
			Marked:     b.marks[i],
			Affordance: AffordanceToggle,
		})
	}

	if b.searched && len(b.results) == 0 {
		search.Notice = NoQuotesNotice
	}

	favorites := b.favorites.List()
	favView := FavoritesView{
		Visible: len(favorites) > 0,
		Cards:   make([]Card, 0, len(favorites)),
	}

	for _, q := range favorites {
		favView.Cards = append(favView.Cards, Card{
			Quote:      q,
			Key:        q.Key(),
			Marked:     true,
			Affordance: AffordanceRemove,
		})
	}

	return Views{
		Version:   b.version,
		Search:    search,
		Favorites: favView,
	}
}

func (b *Board) event(eventType string, q *domain.Quote) FavoriteEvent {
	return FavoriteEvent{
		Type:       eventType,
		Quote:      q,
		Count:      b.favorites.Len(),
		OccurredAt: b.now(),
	}
}

func (b *Board) publish(ctx context.Context, event FavoriteEvent) {
	if b.publisher == nil {
		return
	}

	err := b.publisher.Publish(ctx, event)
	if err != nil {
		b.logger.WarnContext(ctx, "publishing favorites event failed",
			slog.String("event_type", event.EventType()),
			slog.Any("error", err),
		)
	}
}
