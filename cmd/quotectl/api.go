package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
)

const apiServiceName = "quotebook"

// HTTPAPI calls the quotebook REST API.
type HTTPAPI struct {
	acl.Adapter
}

var _ BoardAPI = (*HTTPAPI)(nil)

// NewHTTPAPI creates an API client for the service at baseURL. Requests are
// not retried; mutations are not idempotent. Server error bodies are kept so
// NOT_READY responses map back to their load state.
func NewHTTPAPI(baseURL string, timeout time.Duration, logger *slog.Logger) (*HTTPAPI, error) {
	client, err := clients.New(&clients.Config{
		BaseURL:     baseURL,
		ServiceName: apiServiceName,
		Timeout:     timeout,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      config.DefaultClientRetryMultiplier,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   config.DefaultClientCircuitMaxFailures,
			Timeout:       30 * time.Second,
			HalfOpenLimit: 1,
		},
		ReturnServerErrors: true,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	return &HTTPAPI{Adapter: acl.NewAdapter(client, apiServiceName)}, nil
}

// Status fetches the quote cache status.
func (a *HTTPAPI) Status(ctx context.Context) (*dto.StatusResponse, error) {
	body, err := a.Get(ctx, "/api/v1/quotes/status", "Status")
	if err != nil {
		return nil, err
	}

	return acl.Decode[dto.StatusResponse](body, a.Service())
}

// Search runs a search.
func (a *HTTPAPI) Search(ctx context.Context, term string) (*dto.ViewsResponse, error) {
	body, err := a.Get(ctx, "/api/v1/quotes/search?q="+url.QueryEscape(term), "Search")
	if err != nil {
		return nil, err
	}

	return acl.Decode[dto.ViewsResponse](body, a.Service())
}

// Views fetches the current views.
func (a *HTTPAPI) Views(ctx context.Context) (*dto.ViewsResponse, error) {
	body, err := a.Get(ctx, "/api/v1/views", "Views")
	if err != nil {
		return nil, err
	}

	return acl.Decode[dto.ViewsResponse](body, a.Service())
}

// Favorites fetches the favorites view.
func (a *HTTPAPI) Favorites(ctx context.Context) (*dto.FavoritesViewResponse, error) {
	body, err := a.Get(ctx, "/api/v1/favorites", "Favorites")
	if err != nil {
		return nil, err
	}

	return acl.Decode[dto.FavoritesViewResponse](body, a.Service())
}

// Toggle marks or unmarks a quote.
func (a *HTTPAPI) Toggle(ctx context.Context, text, author string) (*dto.ViewsResponse, error) {
	return a.postQuote(ctx, "/api/v1/favorites/toggle", "Toggle", text, author)
}

// Remove removes a quote from favorites.
func (a *HTTPAPI) Remove(ctx context.Context, text, author string) (*dto.ViewsResponse, error) {
	return a.postQuote(ctx, "/api/v1/favorites/remove", "Remove", text, author)
}

// Clear removes all favorites.
func (a *HTTPAPI) Clear(ctx context.Context) (*dto.ViewsResponse, error) {
	body, err := a.Delete(ctx, "/api/v1/favorites", "Clear")
	if err != nil {
		return nil, err
	}

	return acl.Decode[dto.ViewsResponse](body, a.Service())
}

func (a *HTTPAPI) postQuote(ctx context.Context, path, operation, text, author string) (*dto.ViewsResponse, error) {
	payload, err := json.Marshal(dto.QuoteRequest{Text: text, Author: author})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	body, err := a.Post(ctx, path, bytes.NewReader(payload), operation)
	if err != nil {
		return nil, err
	}

	return acl.Decode[dto.ViewsResponse](body, a.Service())
}
