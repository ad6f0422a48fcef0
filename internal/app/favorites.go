package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// DefaultFavoritesKey is the storage slot holding the serialized favorites.
const DefaultFavoritesKey = "favorites"

// storedQuote is the persisted shape of one favorite.
type storedQuote struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// FavoritesStore is the persisted, ordered set of favorite quotes.
// Every mutation rewrites the whole set under a single key.
type FavoritesStore struct {
	store  ports.KeyValueStore
	key    string
	exec   *Executor
	logger *slog.Logger

	mu  sync.RWMutex
	set domain.Favorites
}

// FavoritesStoreConfig contains configuration for the favorites store.
type FavoritesStoreConfig struct {
	Store    ports.KeyValueStore
	Key      string
	Executor *Executor
	Logger   *slog.Logger
}

// NewFavoritesStore creates an empty favorites store. Call Load to read
// persisted state.
func NewFavoritesStore(cfg FavoritesStoreConfig) *FavoritesStore {
	if cfg.Store == nil {
		panic("app: favorites store requires a key-value store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "app.FavoritesStore"))

	key := cfg.Key
	if key == "" {
		key = DefaultFavoritesKey
	}

	exec := cfg.Executor
	if exec == nil {
		exec = NewExecutor(logger)
	}

	return &FavoritesStore{
		store:  cfg.Store,
		key:    key,
		exec:   exec,
		logger: logger,
		set:    domain.Favorites{},
	}
}

// Load reads the persisted favorites and replaces the in-memory set.
// Missing or malformed data yields an empty set; neither is an error.
func (s *FavoritesStore) Load(ctx context.Context) []domain.Quote {
	set := s.read(ctx)

	s.mu.Lock()
	s.set = set
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "favorites loaded", slog.Int("count", len(set)))

	return set.Quotes()
}

func (s *FavoritesStore) read(ctx context.Context) domain.Favorites {
	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "reading favorites failed, starting empty",
				slog.Any("error", err),
			)
		}

		return domain.Favorites{}
	}

	var stored []storedQuote

	err = json.Unmarshal(raw, &stored)
	if err != nil {
		s.logger.WarnContext(ctx, "malformed favorites, starting empty",
			slog.Any("error", err),
		)

		return domain.Favorites{}
	}

	quotes := make([]domain.Quote, 0, len(stored))
	for _, sq := range stored {
		quotes = append(quotes, domain.Quote{Text: sq.Q, Author: sq.A})
	}

	set := domain.NewFavorites(quotes)
	if len(set) != len(quotes) {
		s.logger.WarnContext(ctx, "collapsed duplicate favorites",
			slog.Int("stored", len(quotes)),
			slog.Int("kept", len(set)),
		)
	}

	return set
}

// Add inserts q at the front and persists the set.
// It is a no-op when an equal quote is already a favorite.
func (s *FavoritesStore) Add(ctx context.Context, q domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set.Contains(q) {
		return nil
	}

	_, err := Execute(ctx, s.exec, s.mutation("favorites.add", func(set domain.Favorites) domain.Favorites {
		return set.With(q)
	}, true), q)

	return err
}

// Remove deletes every quote equal to q and persists the set, even when
// nothing matched or the set is now empty.
func (s *FavoritesStore) Remove(ctx context.Context, q domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := Execute(ctx, s.exec, s.mutation("favorites.remove", func(set domain.Favorites) domain.Favorites {
		return set.Without(q)
	}, false), q)

	return err
}

// mutation builds the pipeline for a set transformation. The caller holds s.mu.
func (s *FavoritesStore) mutation(
	name string,
	apply func(domain.Favorites) domain.Favorites,
	validate bool,
) Operation[domain.Quote, domain.Favorites, domain.Favorites] {
	op := Operation[domain.Quote, domain.Favorites, domain.Favorites]{
		Name: name,
		Compute: func(_ context.Context, _ domain.Quote) (domain.Favorites, error) {
			return apply(s.set), nil
		},
		Verify: func(_ context.Context, _ domain.Quote, next domain.Favorites) error {
			if !next.Unique() {
				return errors.New("favorites contain duplicate quotes")
			}

			return nil
		},
		Persist: func(ctx context.Context, _ domain.Quote, next domain.Favorites) error {
			return s.write(ctx, next)
		},
		Respond: func(_ context.Context, _ domain.Quote, next domain.Favorites) (domain.Favorites, error) {
			s.set = next

			return next, nil
		},
	}

	if validate {
		op.Validate = func(_ context.Context, q domain.Quote) error {
			return q.Validate()
		}
	}

	return op
}

func (s *FavoritesStore) write(ctx context.Context, set domain.Favorites) error {
	stored := make([]storedQuote, 0, len(set))
	for _, q := range set {
		stored = append(stored, storedQuote{Q: q.Text, A: q.Author})
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding favorites: %w", err)
	}

	err = s.store.Set(ctx, s.key, raw)
	if err != nil {
		return fmt.Errorf("writing favorites: %w", err)
	}

	return nil
}

// Clear empties the set and deletes the persisted key entirely.
func (s *FavoritesStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Delete(ctx, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, "clearing favorites failed", slog.Any("error", err))

		return fmt.Errorf("deleting favorites: %w", err)
	}

	s.set = domain.Favorites{}

	s.logger.InfoContext(ctx, "favorites cleared")

	return nil
}

// List returns the favorites, most recently added first.
func (s *FavoritesStore) List() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.set.Quotes()
}

// Contains reports whether an equal quote is a favorite.
func (s *FavoritesStore) Contains(q domain.Quote) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.set.Contains(q)
}

// Len returns the number of favorites.
func (s *FavoritesStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.set)
}
