// Package store provides durable string key/value storage for engine
// snapshots. Values are opaque to the store; callers own the encoding.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Store is the persistence contract. Both operations may block on the
// backing medium. Callers treat writes as best-effort caching, never as
// a source of truth.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
