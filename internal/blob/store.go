// Package blob stores uploaded image bytes by stable path and issues
// time-boxed URLs for them.
package blob

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("blob not found")

type Store interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// Delete is a no-op for a missing path.
	Delete(ctx context.Context, path string) error
	// SignedURL has no side effects and may be called for every read.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
