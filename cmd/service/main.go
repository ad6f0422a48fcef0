// Package main is the entry point for the quotebook service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quotebook/internal/adapters/broker"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotebook/internal/adapters/flags"
	"github.com/jsamuelsen/quotebook/internal/adapters/http"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load .env and determine profile
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create health registry
	healthRegistry := ports.NewHealthRegistry()

	// 6. Open favorites storage and read persisted favorites
	store, closeStore, err := openStore(cfg.Storage, healthRegistry)
	if err != nil {
		return err
	}
	defer closeStore()

	favorites := app.NewFavoritesStore(app.FavoritesStoreConfig{
		Store:  store,
		Key:    cfg.Storage.Key,
		Logger: logger,
	})
	loaded := favorites.Load(ctx)

	logger.Info("favorites loaded",
		slog.String("driver", cfg.Storage.Driver),
		slog.Int("count", len(loaded)),
	)

	// 7. Create the quote source client (ACL pattern) and start the load.
	// The one fetch is never retried.
	retry := cfg.Client.Retry
	retry.MaxAttempts = 1

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quote.BaseURL,
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	quoteSource := acl.NewQuoteSource(acl.QuoteSourceConfig{
		Client: httpClient,
		Name:   cfg.Services.Quote.Name,
		Path:   cfg.Services.Quote.Path,
		Logger: logger,
	})

	if err := healthRegistry.Register(quoteSource); err != nil {
		return fmt.Errorf("registering quote source health check: %w", err)
	}

	catalog := app.NewCatalog(app.CatalogConfig{
		Source: quoteSource,
		Logger: logger,
	})
	catalog.LoadAsync(ctx)

	if err := healthRegistry.Register(catalog); err != nil {
		return fmt.Errorf("registering catalog health check: %w", err)
	}

	// 8. Optional event publishing
	boardCfg := app.BoardConfig{
		Search:    app.NewSearchEngine(catalog, logger),
		Favorites: favorites,
		Flags:     flags.FromConfig(cfg.Features),
		Logger:    logger,
	}

	if cfg.Broker.Enabled {
		publisher, err := broker.NewPublisher(logger, cfg.Broker.URL, cfg.Broker.Subject)
		if err != nil {
			return fmt.Errorf("connecting to broker: %w", err)
		}
		defer publisher.Close()

		if err := healthRegistry.Register(publisher); err != nil {
			return fmt.Errorf("registering broker health check: %w", err)
		}

		boardCfg.Publisher = publisher
	}

	board := app.NewBoard(boardCfg)

	// 9. Export widget gauges alongside the HTTP metrics
	if err := telemetry.RegisterGauges(prometheus.DefaultRegisterer, telemetry.GaugeSource{
		Favorites:    favorites.Len,
		QuotesLoaded: catalog.Len,
	}); err != nil {
		return fmt.Errorf("registering gauges: %w", err)
	}

	// 10. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo)
	boardHandler := handlers.NewBoardHandler(board, catalog, favorites)
	streamHandler := handlers.NewStreamHandler(board, nil)

	// 11. Create HTTP server
	server := http.New(&cfg.Server, logger)

	// 12. Setup router with all middleware and routes
	routerCfg := http.NewDefaultRouterConfig(logger, &cfg.App, healthHandler, boardHandler, streamHandler)
	routerCfg.RateLimit = cfg.Server.RateLimit
	http.SetupRouter(server.Engine(), routerCfg)

	server.OnShutdown(streamHandler.Close)

	// 13. Serve until SIGINT or SIGTERM
	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

// openStore opens the configured favorites storage and registers its health
// check. The returned func releases it.
func openStore(cfg config.StorageConfig, registry ports.HealthRegistry) (ports.KeyValueStore, func(), error) {
	if cfg.Driver == "memory" {
		return memory.New(), func() {}, nil
	}

	db := sqlite.NewDB(cfg.Path)
	if err := db.Open(); err != nil {
		return nil, nil, fmt.Errorf("opening favorites database: %w", err)
	}

	if err := registry.Register(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("registering database health check: %w", err)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			slog.Error("closing favorites database", slog.Any("error", err))
		}
	}

	return sqlite.NewKeyValueStore(db), closeDB, nil
}
