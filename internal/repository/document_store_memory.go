package repository

import (
	"context"
	"sync"
)

type memoryDocumentStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryDocumentStore() DocumentStore {
	return &memoryDocumentStore{
		entries: make(map[string][]byte),
	}
}

func (s *memoryDocumentStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return cloneBytes(value), nil
}

func (s *memoryDocumentStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = cloneBytes(value)
	return nil
}

func (s *memoryDocumentStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memoryDocumentStore) MultiGet(_ context.Context, keys []string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]byte, len(keys))
	for i, key := range keys {
		if value, ok := s.entries[key]; ok {
			out[i] = cloneBytes(value)
		}
	}
	return out, nil
}

// cloneBytes keeps callers from mutating stored values.
func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
