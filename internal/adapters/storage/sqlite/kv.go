package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Ensure KeyValueStore implements ports.KeyValueStore at compile time.
var _ ports.KeyValueStore = (*KeyValueStore)(nil)

// KeyValueStore implements ports.KeyValueStore on the kv table.
type KeyValueStore struct {
	db  *DB
	now func() time.Time
}

// NewKeyValueStore creates a store backed by an open DB.
func NewKeyValueStore(db *DB) *KeyValueStore {
	return &KeyValueStore{
		db:  db,
		now: time.Now,
	}
}

// Get returns the value stored under key, or domain.ErrNotFound.
func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("key", key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %q: %w", key, err)
	}

	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *KeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KeyValueStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}

	return nil
}
