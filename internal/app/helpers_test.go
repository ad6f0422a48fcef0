package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/mocks"
)

var (
	wilde = domain.Quote{
		Text:   "Be yourself; everyone else is already taken.",
		Author: "Oscar Wilde",
	}
	daVinci = domain.Quote{
		Text:   "Simplicity is the ultimate sophistication.",
		Author: "Leonardo da Vinci",
	}
	twain = domain.Quote{
		Text:   "The secret of getting ahead is getting started.",
		Author: "Mark Twain",
	}
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryKV backs a MockKeyValueStore with a map so state survives across calls.
type memoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryKV) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]

	return v, ok
}

func newMemoryKV(t *testing.T, seed map[string]string) (*mocks.MockKeyValueStore, *memoryKV) {
	t.Helper()

	kv := &memoryKV{data: make(map[string][]byte)}
	for k, v := range seed {
		kv.data[k] = []byte(v)
	}

	store := mocks.NewMockKeyValueStore(t)

	store.EXPECT().Get(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, key string) ([]byte, error) {
			v, ok := kv.get(key)
			if !ok {
				return nil, domain.NewNotFoundError("key", key)
			}

			return v, nil
		}).Maybe()

	store.EXPECT().Set(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, key string, value []byte) error {
			kv.mu.Lock()
			defer kv.mu.Unlock()

			kv.data[key] = value

			return nil
		}).Maybe()

	store.EXPECT().Delete(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, key string) error {
			kv.mu.Lock()
			defer kv.mu.Unlock()

			delete(kv.data, key)

			return nil
		}).Maybe()

	return store, kv
}

// loadedCatalog returns a catalog already loaded with quotes.
func loadedCatalog(t *testing.T, quotes ...domain.Quote) *Catalog {
	t.Helper()

	source := mocks.NewMockQuoteSource(t)
	source.EXPECT().FetchQuotes(mock.Anything).Return(quotes, nil).Once()

	catalog := NewCatalog(CatalogConfig{Source: source, Logger: discardLogger()})
	if err := catalog.Load(context.Background()); err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	return catalog
}
