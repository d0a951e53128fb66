package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists under a key.
var ErrNotFound = errors.New("key not found")

// KeyPrefix is prepended to the username to form the persistence key.
const KeyPrefix = "esports_data_"

// Store is an opaque key-value persistence adapter. Values are written
// whole; there are no transactions and no expiry.
// Implementations can back this with memory, local files, SQLite, Redis or Firestore.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Key derives the storage key for an identity.
func Key(username string) string {
	return KeyPrefix + username
}
