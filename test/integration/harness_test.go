//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/quotebook/internal/adapters/http"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// upstreamQuote is one record served by the fake quote source.
type upstreamQuote struct {
	ID     int    `json:"id"`
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// fakeQuoteSource serves a dummyjson-style /quotes collection.
type fakeQuoteSource struct {
	mu     sync.Mutex
	quotes []upstreamQuote
	down   bool
	calls  int
	srv    *httptest.Server
}

func newFakeQuoteSource() *fakeQuoteSource {
	f := &fakeQuoteSource{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))

	return f
}

func (f *fakeQuoteSource) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	if f.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if r.URL.Path != "/quotes" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"quotes": f.quotes,
		"total":  len(f.quotes),
	})
}

func (f *fakeQuoteSource) add(text, author string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.quotes = append(f.quotes, upstreamQuote{ID: len(f.quotes) + 1, Quote: text, Author: author})
}

func (f *fakeQuoteSource) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.down = down
}

func (f *fakeQuoteSource) close() {
	f.srv.Close()
}

// service is the quotebook stack wired the way cmd/service wires it, over
// a sqlite file so restarts keep favorites.
type service struct {
	db  *sqlite.DB
	api *httptest.Server
}

func startService(ctx context.Context, sourceURL, dbPath string) (*service, error) {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db := sqlite.NewDB(dbPath)
	if err := db.Open(); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	favorites := app.NewFavoritesStore(app.FavoritesStoreConfig{
		Store:  sqlite.NewKeyValueStore(db),
		Logger: logger,
	})
	favorites.Load(ctx)

	client, err := clients.New(&clients.Config{
		BaseURL:     sourceURL,
		ServiceName: acl.DefaultQuoteSourceName,
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
		Logger: logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	catalog := app.NewCatalog(app.CatalogConfig{
		Source: acl.NewQuoteSource(acl.QuoteSourceConfig{Client: client, Logger: logger}),
		Logger: logger,
	})
	catalog.LoadAsync(ctx)

	select {
	case <-catalog.Done():
	case <-time.After(5 * time.Second):
		_ = db.Close()
		return nil, fmt.Errorf("quotes did not finish loading")
	}

	board := app.NewBoard(app.BoardConfig{
		Search:    app.NewSearchEngine(catalog, logger),
		Favorites: favorites,
		Logger:    logger,
	})

	registry := ports.NewHealthRegistry()
	if err := registry.Register(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.NewDefaultRouterConfig(
		logger,
		&config.AppConfig{Name: "quotebook", Version: "test", Environment: "test"},
		handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "none", "now")),
		handlers.NewBoardHandler(board, catalog, favorites),
		handlers.NewStreamHandler(board, nil),
	))

	return &service{db: db, api: httptest.NewServer(engine)}, nil
}

func (s *service) url() string {
	return s.api.URL
}

func (s *service) stop() {
	s.api.Close()
	_ = s.db.Close()
}
