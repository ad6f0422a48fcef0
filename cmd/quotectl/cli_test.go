package main_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	main "github.com/jsamuelsen/quotebook/cmd/quotectl"
	"github.com/jsamuelsen/quotebook/internal/adapters/broker"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// fakeAPI is a BoardAPI whose methods delegate to optional funcs.
type fakeAPI struct {
	StatusFn    func(ctx context.Context) (*dto.StatusResponse, error)
	SearchFn    func(ctx context.Context, term string) (*dto.ViewsResponse, error)
	ViewsFn     func(ctx context.Context) (*dto.ViewsResponse, error)
	FavoritesFn func(ctx context.Context) (*dto.FavoritesViewResponse, error)
	ToggleFn    func(ctx context.Context, text, author string) (*dto.ViewsResponse, error)
	RemoveFn    func(ctx context.Context, text, author string) (*dto.ViewsResponse, error)
	ClearFn     func(ctx context.Context) (*dto.ViewsResponse, error)
}

func (f *fakeAPI) Status(ctx context.Context) (*dto.StatusResponse, error) { return f.StatusFn(ctx) }
func (f *fakeAPI) Search(ctx context.Context, term string) (*dto.ViewsResponse, error) {
	return f.SearchFn(ctx, term)
}
func (f *fakeAPI) Views(ctx context.Context) (*dto.ViewsResponse, error) { return f.ViewsFn(ctx) }
func (f *fakeAPI) Favorites(ctx context.Context) (*dto.FavoritesViewResponse, error) {
	return f.FavoritesFn(ctx)
}
func (f *fakeAPI) Toggle(ctx context.Context, text, author string) (*dto.ViewsResponse, error) {
	return f.ToggleFn(ctx, text, author)
}
func (f *fakeAPI) Remove(ctx context.Context, text, author string) (*dto.ViewsResponse, error) {
	return f.RemoveFn(ctx, text, author)
}
func (f *fakeAPI) Clear(ctx context.Context) (*dto.ViewsResponse, error) { return f.ClearFn(ctx) }

type fakeEvents struct {
	envelopes []broker.Envelope
	err       error
}

func (f *fakeEvents) Start(_ context.Context, handle func(broker.Envelope)) error {
	for _, env := range f.envelopes {
		handle(env)
	}

	return f.err
}

var wildeCard = dto.CardResponse{
	Text:   "Be yourself; everyone else is already taken.",
	Author: "Oscar Wilde",
	Key:    "k1",
	Marked: true,
	Action: "toggle",
}

func run(t *testing.T, m *main.Main, args ...string) (string, string, error) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), args, stdout, stderr)

	return stdout.String(), stderr.String(), err
}

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	for _, cmd := range []string{"status", "search", "views", "favorites", "toggle", "remove", "clear", "events"} {
		assert.Contains(t, stdout.String(), cmd, "Help should mention %s command", cmd)
	}
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, main.NewMain())

	require.Error(t, err)
	assert.Contains(t, stdout, "Usage:")
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, main.NewMain(), "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "Flags:")
}

func TestSearchCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints cards with marks", func(t *testing.T) {
		t.Parallel()

		var gotTerm string

		m := &main.Main{API: &fakeAPI{
			SearchFn: func(_ context.Context, term string) (*dto.ViewsResponse, error) {
				gotTerm = term
				return &dto.ViewsResponse{Search: dto.SearchViewResponse{
					Visible: true,
					Term:    term,
					Cards:   []dto.CardResponse{wildeCard},
				}}, nil
			},
		}}

		stdout, _, err := run(t, m, "search", "wilde")

		require.NoError(t, err)
		assert.Equal(t, "wilde", gotTerm)
		assert.Contains(t, stdout, "[*] Be yourself; everyone else is already taken. (Oscar Wilde)")
	})

	t.Run("prints notice when nothing matches", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{API: &fakeAPI{
			SearchFn: func(context.Context, string) (*dto.ViewsResponse, error) {
				return &dto.ViewsResponse{Search: dto.SearchViewResponse{
					Visible: true,
					Cards:   []dto.CardResponse{},
					Notice:  "No quotes found",
				}}, nil
			},
		}}

		stdout, _, err := run(t, m, "search", "xyz")

		require.NoError(t, err)
		assert.Contains(t, stdout, "No quotes found")
	})

	t.Run("explains not ready", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{API: &fakeAPI{
			SearchFn: func(context.Context, string) (*dto.ViewsResponse, error) {
				return nil, domain.NewNotReadyError(domain.LoadStateUnloaded)
			},
		}}

		_, stderr, err := run(t, m, "search", "x")

		require.ErrorIs(t, err, domain.ErrNotReady)
		assert.Contains(t, stderr, "still loading")
	})

	t.Run("explains failed load", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{API: &fakeAPI{
			SearchFn: func(context.Context, string) (*dto.ViewsResponse, error) {
				return nil, domain.NewNotReadyError(domain.LoadStateFailed)
			},
		}}

		_, stderr, err := run(t, m, "search")

		require.Error(t, err)
		assert.Contains(t, stderr, "failed to load")
	})
}

func TestStatusCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints state and favorites", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{API: &fakeAPI{
			StatusFn: func(context.Context) (*dto.StatusResponse, error) {
				return &dto.StatusResponse{State: "loaded", Quotes: 30, Favorites: 1}, nil
			},
			FavoritesFn: func(context.Context) (*dto.FavoritesViewResponse, error) {
				return &dto.FavoritesViewResponse{Visible: true, Cards: []dto.CardResponse{wildeCard}}, nil
			},
		}}

		stdout, _, err := run(t, m, "status")

		require.NoError(t, err)
		assert.Contains(t, stdout, "loaded (30 loaded)")
		assert.Contains(t, stdout, "favorites: 1")
		assert.Contains(t, stdout, "Oscar Wilde")
	})

	t.Run("reports either failure", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{API: &fakeAPI{
			StatusFn: func(context.Context) (*dto.StatusResponse, error) {
				return &dto.StatusResponse{State: "loaded"}, nil
			},
			FavoritesFn: func(context.Context) (*dto.FavoritesViewResponse, error) {
				return nil, domain.NewUnavailableError("quotebook", "connection refused")
			},
		}}

		_, stderr, err := run(t, m, "status")

		require.ErrorIs(t, err, domain.ErrUnavailable)
		assert.Contains(t, stderr, "unavailable")
	})
}

func TestToggleCmd(t *testing.T) {
	t.Parallel()

	var gotText, gotAuthor string

	m := &main.Main{API: &fakeAPI{
		ToggleFn: func(_ context.Context, text, author string) (*dto.ViewsResponse, error) {
			gotText, gotAuthor = text, author
			return &dto.ViewsResponse{
				Search:    dto.SearchViewResponse{Visible: true, Term: "oscar", Cards: []dto.CardResponse{wildeCard}},
				Favorites: dto.FavoritesViewResponse{Visible: true, Cards: []dto.CardResponse{wildeCard}},
			}, nil
		},
	}}

	stdout, _, err := run(t, m, "toggle", wildeCard.Text, wildeCard.Author)

	require.NoError(t, err)
	assert.Equal(t, wildeCard.Text, gotText)
	assert.Equal(t, wildeCard.Author, gotAuthor)
	assert.Contains(t, stdout, `Search "oscar":`)
	assert.Contains(t, stdout, "Favorites:")
}

func TestRemoveCmd_AuthorOptional(t *testing.T) {
	t.Parallel()

	var gotAuthor = "unset"

	m := &main.Main{API: &fakeAPI{
		RemoveFn: func(_ context.Context, _, author string) (*dto.ViewsResponse, error) {
			gotAuthor = author
			return &dto.ViewsResponse{}, nil
		},
	}}

	_, _, err := run(t, m, "remove", "Anonymous wisdom")

	require.NoError(t, err)
	assert.Empty(t, gotAuthor)
}

func TestFavoritesCmd_Empty(t *testing.T) {
	t.Parallel()

	m := &main.Main{API: &fakeAPI{
		FavoritesFn: func(context.Context) (*dto.FavoritesViewResponse, error) {
			return &dto.FavoritesViewResponse{Cards: []dto.CardResponse{}}, nil
		},
	}}

	stdout, _, err := run(t, m, "favorites")

	require.NoError(t, err)
	assert.Contains(t, stdout, "No favorites yet")
}

func TestClearCmd(t *testing.T) {
	t.Parallel()

	t.Run("requires force", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{API: &fakeAPI{
			ClearFn: func(context.Context) (*dto.ViewsResponse, error) {
				t.Fatal("clear must not be called without --force")
				return nil, nil
			},
		}}

		_, stderr, err := run(t, m, "clear")

		require.Error(t, err)
		assert.Contains(t, stderr, "--force")
	})

	t.Run("clears with force", func(t *testing.T) {
		t.Parallel()

		called := false
		m := &main.Main{API: &fakeAPI{
			ClearFn: func(context.Context) (*dto.ViewsResponse, error) {
				called = true
				return &dto.ViewsResponse{}, nil
			},
		}}

		stdout, _, err := run(t, m, "clear", "--force")

		require.NoError(t, err)
		assert.True(t, called)
		assert.Contains(t, stdout, "Favorites cleared.")
	})
}

func TestViewsCmd_JSON(t *testing.T) {
	t.Parallel()

	m := &main.Main{API: &fakeAPI{
		ViewsFn: func(context.Context) (*dto.ViewsResponse, error) {
			return &dto.ViewsResponse{Version: 7}, nil
		},
	}}

	stdout, _, err := run(t, m, "views", "--json")

	require.NoError(t, err)
	assert.Contains(t, stdout, `"version": 7`)
}

func TestEventsCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints envelopes", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{
			API: &fakeAPI{},
			Events: &fakeEvents{
				envelopes: []broker.Envelope{{
					Subject: "quotebook.favorites.favorite.added",
					Type:    "favorite.added",
					Data:    []byte(`{"q":"x"}`),
				}},
				err: context.Canceled,
			},
		}

		stdout, _, err := run(t, m, "events")

		require.NoError(t, err)
		assert.Contains(t, stdout, `favorite.added  {"q":"x"}`)
	})

	t.Run("reports subscriber errors", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{
			API:    &fakeAPI{},
			Events: &fakeEvents{err: errors.New("subscription closed")},
		}

		_, stderr, err := run(t, m, "events")

		require.Error(t, err)
		assert.Contains(t, stderr, "subscription closed")
	})
}
