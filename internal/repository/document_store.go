package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by typed repositories when a document is absent.
var ErrNotFound = errors.New("document not found")

// DocumentStore abstracts the key-value document store: opaque string keys,
// JSON document values, and no atomicity across keys.
// Implementations: in-memory, Redis, PostgreSQL, SQLite and DynamoDB.
type DocumentStore interface {
	// Get returns nil, nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for an absent key.
	Delete(ctx context.Context, key string) error
	// MultiGet returns one entry per key, in key order; absent keys yield nil.
	MultiGet(ctx context.Context, keys []string) ([][]byte, error)
}
