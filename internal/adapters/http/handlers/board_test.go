package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/mocks"
)

var (
	wilde   = domain.Quote{Text: "Be yourself; everyone else is already taken.", Author: "Oscar Wilde"}
	daVinci = domain.Quote{Text: "Simplicity is the ultimate sophistication.", Author: "Leonardo da Vinci"}
)

type boardFixture struct {
	router  *gin.Engine
	board   *app.Board
	catalog *app.Catalog
}

// setupBoard wires a board over an in-memory store. A nil quotes slice
// leaves the catalog unloaded.
func setupBoard(t *testing.T, quotes []domain.Quote, loadErr error) *boardFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	source := mocks.NewMockQuoteSource(t)
	if quotes != nil || loadErr != nil {
		source.EXPECT().FetchQuotes(mock.Anything).Return(quotes, loadErr).Once()
	}

	catalog := app.NewCatalog(app.CatalogConfig{Source: source, Logger: logger})
	if quotes != nil || loadErr != nil {
		_ = catalog.Load(context.Background())
	}

	favorites := app.NewFavoritesStore(app.FavoritesStoreConfig{
		Store:  memory.New(),
		Logger: logger,
	})

	board := app.NewBoard(app.BoardConfig{
		Search:    app.NewSearchEngine(catalog, logger),
		Favorites: favorites,
		Logger:    logger,
	})

	handler := NewBoardHandler(board, catalog, favorites)

	router := gin.New()
	handler.RegisterBoardRoutes(router.Group("/api/v1"))

	return &boardFixture{router: router, board: board, catalog: catalog}
}

func (f *boardFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	return w
}

func decodeViews(t *testing.T, w *httptest.ResponseRecorder) dto.ViewsResponse {
	t.Helper()

	var resp dto.ViewsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp
}

func quoteBody(q domain.Quote) string {
	b, _ := json.Marshal(dto.QuoteRequest{Text: q.Text, Author: q.Author})
	return string(b)
}

func TestBoardHandler_Status(t *testing.T) {
	tests := []struct {
		name     string
		quotes   []domain.Quote
		loadErr  error
		expected dto.StatusResponse
	}{
		{
			name:     "unloaded",
			expected: dto.StatusResponse{State: "unloaded"},
		},
		{
			name:     "loaded",
			quotes:   []domain.Quote{wilde, daVinci},
			expected: dto.StatusResponse{State: "loaded", Quotes: 2},
		},
		{
			name:     "failed",
			loadErr:  errors.New("connection refused"),
			expected: dto.StatusResponse{State: "failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupBoard(t, tt.quotes, tt.loadErr)

			w := f.do(t, http.MethodGet, "/api/v1/quotes/status", "")

			require.Equal(t, http.StatusOK, w.Code)

			var resp dto.StatusResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expected, resp)
		})
	}
}

func TestBoardHandler_Search(t *testing.T) {
	t.Run("matches author", func(t *testing.T) {
		f := setupBoard(t, []domain.Quote{wilde, daVinci}, nil)

		w := f.do(t, http.MethodGet, "/api/v1/quotes/search?q=oscar", "")

		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeViews(t, w)
		assert.True(t, resp.Search.Visible)
		assert.Equal(t, "oscar", resp.Search.Term)
		require.Len(t, resp.Search.Cards, 1)
		assert.Equal(t, wilde.Text, resp.Search.Cards[0].Text)
		assert.Equal(t, wilde.Key(), resp.Search.Cards[0].Key)
		assert.Equal(t, string(app.AffordanceToggle), resp.Search.Cards[0].Action)
		assert.False(t, resp.Search.Cards[0].Marked)
	})

	t.Run("no match shows notice", func(t *testing.T) {
		f := setupBoard(t, []domain.Quote{wilde}, nil)

		w := f.do(t, http.MethodGet, "/api/v1/quotes/search?q=xyz", "")

		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeViews(t, w)
		assert.Empty(t, resp.Search.Cards)
		assert.Equal(t, app.NoQuotesNotice, resp.Search.Notice)
	})

	t.Run("not ready", func(t *testing.T) {
		f := setupBoard(t, nil, nil)

		w := f.do(t, http.MethodGet, "/api/v1/quotes/search?q=x", "")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeNotReady, resp.Error.Code)
		assert.Equal(t, "unloaded", resp.Error.Details["state"])
	})

	t.Run("term too long", func(t *testing.T) {
		f := setupBoard(t, []domain.Quote{wilde}, nil)

		w := f.do(t, http.MethodGet, "/api/v1/quotes/search?q="+strings.Repeat("a", 201), "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBoardHandler_ToggleAndRemove(t *testing.T) {
	f := setupBoard(t, []domain.Quote{wilde, daVinci}, nil)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/quotes/search", "").Code)

	w := f.do(t, http.MethodPost, "/api/v1/favorites/toggle", quoteBody(wilde))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeViews(t, w)
	assert.True(t, resp.Search.Cards[0].Marked)
	assert.False(t, resp.Search.Cards[1].Marked)
	require.True(t, resp.Favorites.Visible)
	require.Len(t, resp.Favorites.Cards, 1)
	assert.Equal(t, string(app.AffordanceRemove), resp.Favorites.Cards[0].Action)

	w = f.do(t, http.MethodGet, "/api/v1/favorites", "")
	require.Equal(t, http.StatusOK, w.Code)

	var favs dto.FavoritesViewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &favs))
	assert.Len(t, favs.Cards, 1)

	w = f.do(t, http.MethodPost, "/api/v1/favorites/remove", quoteBody(wilde))
	require.Equal(t, http.StatusOK, w.Code)

	resp = decodeViews(t, w)
	assert.False(t, resp.Search.Cards[0].Marked)
	assert.False(t, resp.Favorites.Visible)
	assert.Empty(t, resp.Favorites.Cards)
}

func TestBoardHandler_Toggle_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed json", body: `{"text":`, code: dto.ErrorCodeBadRequest},
		{name: "empty text", body: `{"text":"  ","author":"Nobody"}`, code: dto.ErrorCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupBoard(t, []domain.Quote{wilde}, nil)

			w := f.do(t, http.MethodPost, "/api/v1/favorites/toggle", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestBoardHandler_Clear(t *testing.T) {
	f := setupBoard(t, []domain.Quote{wilde, daVinci}, nil)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/quotes/search", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/favorites/toggle", quoteBody(wilde)).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/favorites/toggle", quoteBody(daVinci)).Code)

	w := f.do(t, http.MethodDelete, "/api/v1/favorites", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeViews(t, w)
	assert.False(t, resp.Favorites.Visible)
	assert.Empty(t, resp.Favorites.Cards)
	assert.Len(t, resp.Search.Cards, 2)

	w = f.do(t, http.MethodGet, "/api/v1/quotes/status", "")

	var status dto.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Zero(t, status.Favorites)
}

func TestBoardHandler_Views(t *testing.T) {
	f := setupBoard(t, []domain.Quote{wilde}, nil)

	w := f.do(t, http.MethodGet, "/api/v1/views", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeViews(t, w)
	assert.False(t, resp.Search.Visible)
	assert.False(t, resp.Favorites.Visible)
	assert.NotNil(t, resp.Search.Cards)
	assert.JSONEq(t, `[]`, string(mustField(t, w.Body.Bytes(), "search", "cards")))
}

func mustField(t *testing.T, raw []byte, path ...string) json.RawMessage {
	t.Helper()

	cur := json.RawMessage(raw)
	for _, key := range path {
		var obj map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(cur, &obj))

		next, ok := obj[key]
		require.True(t, ok, "missing field %q", key)
		cur = next
	}

	return cur
}
