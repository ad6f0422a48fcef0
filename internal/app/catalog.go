// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// The services here are the quote catalog (the one-shot cache of fetched
// quotes), the search engine over it, the persisted favorites store, and the
// board that keeps the search and favorites views in sync with the store.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Catalog holds the quote cache and its load state.
// The cache is filled at most once and is read-only afterwards.
type Catalog struct {
	source ports.QuoteSource
	logger *slog.Logger

	once sync.Once
	done chan struct{}

	mu     sync.RWMutex
	quotes []domain.Quote
	state  domain.LoadState
}

// CatalogConfig contains configuration for the catalog.
type CatalogConfig struct {
	Source ports.QuoteSource
	Logger *slog.Logger
}

// NewCatalog creates an unloaded catalog. It panics without a source.
func NewCatalog(cfg CatalogConfig) *Catalog {
	if cfg.Source == nil {
		panic("app: catalog requires a quote source")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Catalog{
		source: cfg.Source,
		logger: logger.With(slog.String("component", "app.Catalog")),
		done:   make(chan struct{}),
		state:  domain.LoadStateUnloaded,
	}
}

// Load fetches the quotes exactly once. Later calls return immediately.
//
// A fetch failure is logged and moves the catalog to LoadStateFailed; it is
// never retried. The error is returned for callers that want it, but the
// service keeps running either way.
func (c *Catalog) Load(ctx context.Context) error {
	var err error

	c.once.Do(func() {
		defer close(c.done)

		err = c.load(ctx)
	})

	return err
}

// LoadAsync starts Load in the background and returns immediately.
func (c *Catalog) LoadAsync(ctx context.Context) {
	go func() {
		_ = c.Load(ctx)
	}()
}

func (c *Catalog) load(ctx context.Context) error {
	c.logger.InfoContext(ctx, "fetching quotes")

	quotes, err := c.source.FetchQuotes(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "quote fetch failed, search disabled",
			slog.Any("error", err),
		)

		c.mu.Lock()
		c.state = domain.LoadStateFailed
		c.mu.Unlock()

		return err
	}

	cached := make([]domain.Quote, len(quotes))
	copy(cached, quotes)

	c.mu.Lock()
	c.quotes = cached
	c.state = domain.LoadStateLoaded
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "quotes loaded", slog.Int("count", len(cached)))

	return nil
}

// Done is closed once the load has finished, successfully or not.
func (c *Catalog) Done() <-chan struct{} {
	return c.done
}

// State returns the current load state.
func (c *Catalog) State() domain.LoadState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// Quotes returns the cached quotes and the load state.
// The slice is shared and must not be modified.
func (c *Catalog) Quotes() ([]domain.Quote, domain.LoadState) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.quotes, c.state
}

// Len returns the number of cached quotes.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.quotes)
}

// Name implements ports.HealthChecker.
func (c *Catalog) Name() string { return "quotes" }

// Check reports NotReady until the quotes are loaded.
func (c *Catalog) Check(context.Context) error {
	if state := c.State(); state != domain.LoadStateLoaded {
		return domain.NewNotReadyError(state)
	}

	return nil
}

// NonCritical implements ports.NonCritical. Favorites work without quotes.
func (c *Catalog) NonCritical() bool { return true }
