package repository

import (
	"context"
	"fmt"
	"sync"
)

type memoryLockEntry struct {
	ch   chan struct{}
	refs int
}

type memoryKeyLocker struct {
	mu    sync.Mutex
	locks map[string]*memoryLockEntry
}

// NewMemoryKeyLocker serializes callers within a single process.
func NewMemoryKeyLocker() KeyLocker {
	return &memoryKeyLocker{locks: make(map[string]*memoryLockEntry)}
}

func (l *memoryKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &memoryLockEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

// release drops the waiter reference and forgets idle keys.
func (l *memoryKeyLocker) release(key string, e *memoryLockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
