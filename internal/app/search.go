package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// SearchEngine filters the catalog by case-insensitive substring.
type SearchEngine struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewSearchEngine creates a search engine over catalog.
func NewSearchEngine(catalog *Catalog, logger *slog.Logger) *SearchEngine {
	if catalog == nil {
		panic("app: search engine requires a catalog")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SearchEngine{
		catalog: catalog,
		logger:  logger.With(slog.String("component", "app.SearchEngine")),
	}
}

// Search returns every cached quote whose text or author contains term,
// ignoring case and surrounding whitespace, in cache order.
// It fails with domain.ErrNotReady unless the catalog has loaded.
func (s *SearchEngine) Search(ctx context.Context, term string) ([]domain.Quote, error) {
	quotes, state := s.catalog.Quotes()
	if state != domain.LoadStateLoaded {
		s.logger.DebugContext(ctx, "search before quotes loaded",
			slog.String("state", state.String()),
		)

		return nil, domain.NewNotReadyError(state)
	}

	matched := domain.MatchQuotes(quotes, term)

	s.logger.DebugContext(ctx, "search completed",
		slog.String("term", term),
		slog.Int("matches", len(matched)),
	)

	return matched, nil
}
