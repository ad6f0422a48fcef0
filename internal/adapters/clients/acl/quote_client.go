package acl

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	// DefaultQuotesPath is the collection path on dummyjson-compatible APIs.
	DefaultQuotesPath = "/quotes"

	// DefaultQuoteSourceName names the source in logs, errors, and health checks.
	DefaultQuoteSourceName = "quote-source"
)

// QuoteSourceConfig contains configuration for the quote source adapter.
type QuoteSourceConfig struct {
	// Client is the HTTP client to use for requests.
	// The client's BaseURL should be set to the quote API host.
	Client *clients.Client

	// Name identifies the source. Defaults to DefaultQuoteSourceName.
	Name string

	// Path is the collection path. Defaults to DefaultQuotesPath.
	Path string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// QuoteSource implements ports.QuoteSource against a dummyjson-style API.
// External records never leave this file; callers only see domain.Quote.
type QuoteSource struct {
	Adapter
	path   string
	logger *slog.Logger
}

// NewQuoteSource creates a new quote source adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewQuoteSource(cfg QuoteSourceConfig) *QuoteSource {
	if cfg.Client == nil {
		panic("QuoteSource: Client is required")
	}

	name := cfg.Name
	if name == "" {
		name = DefaultQuoteSourceName
	}

	path := cfg.Path
	if path == "" {
		path = DefaultQuotesPath
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteSource{
		Adapter: NewAdapter(cfg.Client, name),
		path:    path,
		logger:  logger,
	}
}

// quotesResponse is the collection envelope.
type quotesResponse struct {
	Quotes []quoteRecord `json:"quotes"`
	Total  int           `json:"total"`
}

// quoteRecord is a single external record. The id is ignored: quotes are
// identified by content.
type quoteRecord struct {
	ID     int    `json:"id"`
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// FetchQuotes retrieves the whole collection in one request.
// A response without a quotes list yields an empty slice.
func (s *QuoteSource) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	path := s.collectionPath(0)
	s.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", path))

	body, err := s.Get(ctx, path, "fetch quotes")
	if err != nil {
		return nil, err
	}

	ext, err := Decode[quotesResponse](body, s.Service())
	if err != nil {
		return nil, err
	}

	quotes := keepValid(ext.Quotes, translateQuote, func(i int, err error) {
		s.logger.WarnContext(ctx, "skipping quote record",
			slog.Int("index", i),
			slog.Any("error", err),
		)
	})

	s.logger.DebugContext(ctx, "fetched quotes",
		slog.Int("count", len(quotes)),
		slog.Int("total", ext.Total),
	)

	return quotes, nil
}

// translateQuote converts an external record to a domain Quote.
func translateQuote(ext *quoteRecord) (domain.Quote, error) {
	q := domain.Quote{Text: ext.Quote, Author: ext.Author}

	return q, q.Validate()
}

// collectionPath appends the limit parameter. limit=0 asks for every record.
func (s *QuoteSource) collectionPath(limit int) string {
	sep := "?"
	if strings.Contains(s.path, "?") {
		sep = "&"
	}

	return s.path + sep + "limit=" + strconv.Itoa(limit)
}

// Name returns the health check name for this source.
// Implements ports.HealthChecker.
func (s *QuoteSource) Name() string {
	return s.Service()
}

// Check requests a single record to verify connectivity.
// Implements ports.HealthChecker.
func (s *QuoteSource) Check(ctx context.Context) error {
	body, err := s.Get(ctx, s.collectionPath(1), "health check")
	if err != nil {
		return err
	}

	return body.Close()
}

// NonCritical implements ports.NonCritical. The catalog keeps serving from
// its cache once loaded.
func (s *QuoteSource) NonCritical() bool {
	return true
}
