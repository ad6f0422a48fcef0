package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// serve replays one request against engine per iteration. newReq is called
// each time so bodies are fresh.
func serve(b *testing.B, engine http.Handler, newReq func() *http.Request) {
	b.Helper()
	b.ReportAllocs()

	for b.Loop() {
		engine.ServeHTTP(httptest.NewRecorder(), newReq())
	}
}

func get(path string) func() *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	return func() *http.Request { return req }
}

func healthEngine(checks ...ports.HealthChecker) *gin.Engine {
	registry := ports.NewHealthRegistry()
	for _, check := range checks {
		_ = registry.Register(check)
	}

	engine := gin.New()
	handlers.NewHealthHandler(registry, handlers.NewBuildInfo("1.0.0", "abc123", "2026-01-01T00:00:00Z")).
		RegisterHealthRoutes(engine)

	return engine
}

// Probes hit these on every kubelet tick.
func BenchmarkLiveness(b *testing.B) {
	serve(b, healthEngine(), get("/-/live"))
}

func BenchmarkReadiness(b *testing.B) {
	b.Run("no checks", func(b *testing.B) {
		serve(b, healthEngine(), get("/-/ready"))
	})

	b.Run("three checks", func(b *testing.B) {
		serve(b, healthEngine(okCheck("sqlite"), okCheck("quotes"), okCheck("nats")), get("/-/ready"))
	})
}

func BenchmarkBuild(b *testing.B) {
	serve(b, healthEngine(), get("/-/build"))
}

// boardEngine serves the board routes over n generated quotes.
func boardEngine(b *testing.B, n int) *gin.Engine {
	b.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog := app.NewCatalog(app.CatalogConfig{Source: staticSource(generateQuotes(n)), Logger: logger})
	if err := catalog.Load(ctx); err != nil {
		b.Fatalf("loading quotes: %v", err)
	}

	favorites := app.NewFavoritesStore(app.FavoritesStoreConfig{Store: memory.New(), Logger: logger})
	favorites.Load(ctx)

	board := app.NewBoard(app.BoardConfig{
		Search:    app.NewSearchEngine(catalog, logger),
		Favorites: favorites,
		Logger:    logger,
	})

	engine := gin.New()
	handlers.NewBoardHandler(board, catalog, favorites).RegisterBoardRoutes(engine.Group("/api/v1"))

	return engine
}

// Search includes view rendering and JSON encoding.
func BenchmarkSearch(b *testing.B) {
	engine := boardEngine(b, 1000)

	b.Run("narrow", func(b *testing.B) {
		serve(b, engine, get("/api/v1/quotes/search?q=author+7"))
	})

	b.Run("everything", func(b *testing.B) {
		serve(b, engine, get("/api/v1/quotes/search"))
	})
}

// Toggle persists the whole set on every call.
func BenchmarkToggle(b *testing.B) {
	engine := boardEngine(b, 1000)
	body := []byte(`{"text":"quote number 1","author":"author 1"}`)

	serve(b, engine, func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/favorites/toggle", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		return req
	})
}

func BenchmarkMatchQuotes(b *testing.B) {
	quotes := generateQuotes(10000)

	b.ReportAllocs()

	for b.Loop() {
		_ = domain.MatchQuotes(quotes, "NUMBER 99")
	}
}

type staticSource []domain.Quote

func (s staticSource) FetchQuotes(context.Context) ([]domain.Quote, error) {
	return s, nil
}

func generateQuotes(n int) []domain.Quote {
	quotes := make([]domain.Quote, n)
	for i := range quotes {
		quotes[i] = domain.Quote{
			Text:   fmt.Sprintf("quote number %d", i),
			Author: fmt.Sprintf("author %d", i%50),
		}
	}

	return quotes
}

type okCheck string

func (c okCheck) Name() string              { return string(c) }
func (okCheck) Check(context.Context) error { return nil }
