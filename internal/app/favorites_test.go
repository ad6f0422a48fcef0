package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/mocks"
)

func newTestFavorites(t *testing.T, seed map[string]string) (*FavoritesStore, *memoryKV) {
	t.Helper()

	store, kv := newMemoryKV(t, seed)

	favorites := NewFavoritesStore(FavoritesStoreConfig{
		Store:  store,
		Logger: discardLogger(),
	})

	return favorites, kv
}

func TestNewFavoritesStore_PanicsWithoutStore(t *testing.T) {
	assert.Panics(t, func() {
		NewFavoritesStore(FavoritesStoreConfig{})
	})
}

func TestFavoritesStore_Load(t *testing.T) {
	tests := []struct {
		name     string
		seed     map[string]string
		expected []domain.Quote
	}{
		{
			name:     "missing key yields empty",
			seed:     nil,
			expected: []domain.Quote{},
		},
		{
			name:     "malformed data yields empty",
			seed:     map[string]string{"favorites": "{not json"},
			expected: []domain.Quote{},
		},
		{
			name:     "wrong shape yields empty",
			seed:     map[string]string{"favorites": `{"q":"x","a":"y"}`},
			expected: []domain.Quote{},
		},
		{
			name:     "reads stored order",
			seed:     map[string]string{"favorites": `[{"q":"Simplicity is the ultimate sophistication.","a":"Leonardo da Vinci"},{"q":"Be yourself; everyone else is already taken.","a":"Oscar Wilde"}]`},
			expected: []domain.Quote{daVinci, wilde},
		},
		{
			name:     "collapses duplicates",
			seed:     map[string]string{"favorites": `[{"q":"Be yourself; everyone else is already taken.","a":"Oscar Wilde"},{"q":"Be yourself; everyone else is already taken.","a":"Oscar Wilde"}]`},
			expected: []domain.Quote{wilde},
		},
		{
			name:     "null yields empty",
			seed:     map[string]string{"favorites": "null"},
			expected: []domain.Quote{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			favorites, _ := newTestFavorites(t, tt.seed)

			loaded := favorites.Load(context.Background())

			assert.Equal(t, tt.expected, loaded)
			assert.Equal(t, tt.expected, favorites.List())
		})
	}
}

func TestFavoritesStore_Load_StoreError(t *testing.T) {
	store := mocks.NewMockKeyValueStore(t)
	store.EXPECT().Get(mock.Anything, "favorites").Return(nil, errors.New("disk on fire")).Once()

	favorites := NewFavoritesStore(FavoritesStoreConfig{Store: store, Logger: discardLogger()})

	assert.Empty(t, favorites.Load(context.Background()))
}

func TestFavoritesStore_Add(t *testing.T) {
	t.Run("inserts at front and persists", func(t *testing.T) {
		favorites, kv := newTestFavorites(t, nil)
		ctx := context.Background()

		require.NoError(t, favorites.Add(ctx, wilde))
		require.NoError(t, favorites.Add(ctx, daVinci))

		assert.Equal(t, []domain.Quote{daVinci, wilde}, favorites.List())

		raw, ok := kv.get("favorites")
		require.True(t, ok)
		assert.JSONEq(t,
			`[{"q":"Simplicity is the ultimate sophistication.","a":"Leonardo da Vinci"},{"q":"Be yourself; everyone else is already taken.","a":"Oscar Wilde"}]`,
			string(raw),
		)
	})

	t.Run("adding twice stores one entry", func(t *testing.T) {
		favorites, _ := newTestFavorites(t, nil)
		ctx := context.Background()

		require.NoError(t, favorites.Add(ctx, wilde))
		require.NoError(t, favorites.Add(ctx, domain.Quote{Text: wilde.Text, Author: wilde.Author}))

		assert.Equal(t, 1, favorites.Len())
	})

	t.Run("duplicate add does not write", func(t *testing.T) {
		store := mocks.NewMockKeyValueStore(t)
		store.EXPECT().Set(mock.Anything, "favorites", mock.Anything).Return(nil).Once()

		favorites := NewFavoritesStore(FavoritesStoreConfig{Store: store, Logger: discardLogger()})

		require.NoError(t, favorites.Add(context.Background(), wilde))
		require.NoError(t, favorites.Add(context.Background(), wilde))
	})

	t.Run("rejects empty text", func(t *testing.T) {
		favorites, _ := newTestFavorites(t, nil)

		err := favorites.Add(context.Background(), domain.Quote{Text: " ", Author: "Nobody"})

		require.ErrorIs(t, err, domain.ErrValidation)

		step, ok := GetExecutionStep(err)
		require.True(t, ok)
		assert.Equal(t, StepValidate, step)
		assert.Equal(t, 0, favorites.Len())
	})

	t.Run("persist failure leaves set unchanged", func(t *testing.T) {
		store := mocks.NewMockKeyValueStore(t)
		store.EXPECT().Set(mock.Anything, "favorites", mock.Anything).
			Return(errors.New("read-only filesystem")).Once()

		favorites := NewFavoritesStore(FavoritesStoreConfig{Store: store, Logger: discardLogger()})

		err := favorites.Add(context.Background(), wilde)

		require.Error(t, err)

		step, ok := GetExecutionStep(err)
		require.True(t, ok)
		assert.Equal(t, StepPersist, step)
		assert.False(t, favorites.Contains(wilde))
	})
}

func TestFavoritesStore_Remove(t *testing.T) {
	t.Run("remove after add restores previous set", func(t *testing.T) {
		favorites, _ := newTestFavorites(t, nil)
		ctx := context.Background()

		require.NoError(t, favorites.Add(ctx, wilde))
		before := favorites.List()

		require.NoError(t, favorites.Add(ctx, daVinci))
		require.NoError(t, favorites.Remove(ctx, daVinci))

		assert.Equal(t, before, favorites.List())
	})

	t.Run("persists empty set", func(t *testing.T) {
		favorites, kv := newTestFavorites(t, nil)
		ctx := context.Background()

		require.NoError(t, favorites.Add(ctx, wilde))
		require.NoError(t, favorites.Remove(ctx, wilde))

		raw, ok := kv.get("favorites")
		require.True(t, ok)
		assert.JSONEq(t, `[]`, string(raw))
	})

	t.Run("absent quote still persists", func(t *testing.T) {
		store := mocks.NewMockKeyValueStore(t)
		store.EXPECT().Set(mock.Anything, "favorites", []byte("[]")).Return(nil).Once()

		favorites := NewFavoritesStore(FavoritesStoreConfig{Store: store, Logger: discardLogger()})

		require.NoError(t, favorites.Remove(context.Background(), twain))
	})
}

func TestFavoritesStore_Clear(t *testing.T) {
	t.Run("deletes the key", func(t *testing.T) {
		favorites, kv := newTestFavorites(t, nil)
		ctx := context.Background()

		require.NoError(t, favorites.Add(ctx, wilde))
		require.NoError(t, favorites.Add(ctx, daVinci))
		require.NoError(t, favorites.Add(ctx, twain))

		require.NoError(t, favorites.Clear(ctx))

		_, ok := kv.get("favorites")
		assert.False(t, ok)
		assert.Equal(t, 0, favorites.Len())
		assert.Empty(t, favorites.Load(ctx))
	})

	t.Run("delete failure keeps favorites", func(t *testing.T) {
		store := mocks.NewMockKeyValueStore(t)
		store.EXPECT().Set(mock.Anything, "favorites", mock.Anything).Return(nil).Once()
		store.EXPECT().Delete(mock.Anything, "favorites").Return(errors.New("locked")).Once()

		favorites := NewFavoritesStore(FavoritesStoreConfig{Store: store, Logger: discardLogger()})
		require.NoError(t, favorites.Add(context.Background(), wilde))

		require.Error(t, favorites.Clear(context.Background()))
		assert.True(t, favorites.Contains(wilde))
	})
}

func TestFavoritesStore_CustomKey(t *testing.T) {
	store, kv := newMemoryKV(t, nil)

	favorites := NewFavoritesStore(FavoritesStoreConfig{
		Store:  store,
		Key:    "quotebook:favorites",
		Logger: discardLogger(),
	})

	require.NoError(t, favorites.Add(context.Background(), wilde))

	_, ok := kv.get("quotebook:favorites")
	assert.True(t, ok)
}
