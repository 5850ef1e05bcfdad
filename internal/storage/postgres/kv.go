package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emirates-gifts/storefront/internal/domain/cart"
)

const (
	getValueSQL = `SELECT value FROM cart_store WHERE key = $1`

	setValueSQL = `INSERT INTO cart_store (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	deleteValueSQL = `DELETE FROM cart_store WHERE key = $1`
)

var _ cart.Storage = (*KVStore)(nil)

// KVStore implements cart.Storage on the cart_store table: one JSON blob per
// key, upserted whole on every write.
type KVStore struct {
	pool *pgxpool.Pool
}

// NewKVStore returns a KVStore that uses the given pool.
func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

// Get returns the blob stored under key; ok is false when the key is absent.
func (s *KVStore) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	err = s.pool.QueryRow(ctx, getValueSQL, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "get %q", key)
	}
	return value, true, nil
}

// Set upserts the blob under key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx, setValueSQL, key, value); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, deleteValueSQL, key); err != nil {
		return errors.Wrapf(err, "delete %q", key)
	}
	return nil
}
