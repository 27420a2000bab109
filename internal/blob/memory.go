package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	jwtpkg "invitely/eventhub/pkg/jwt"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore keeps blobs in process and signs URLs served by the
// /blobs route. Each URL carries a blob token bound to the path.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
	signer  *jwtpkg.Manager
}

func NewMemoryStore(publicBaseURL string, signer *jwtpkg.Manager) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]Object),
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		signer:  signer,
	}
}

func (s *MemoryStore) Put(_ context.Context, path string, data []byte, contentType string) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = Object{Data: buf, ContentType: contentType}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *MemoryStore) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	token, err := s.signer.GenerateScopedToken(path, jwtpkg.TokenTypeBlob, ttl)
	if err != nil {
		return "", fmt.Errorf("sign blob url: %w", err)
	}
	return s.baseURL + "/blobs/" + path + "?token=" + url.QueryEscape(token), nil
}

// Open returns the blob at path if token is a valid, unexpired blob token
// issued for that path.
func (s *MemoryStore) Open(path, token string) (Object, error) {
	claims, err := s.signer.ValidateType(token, jwtpkg.TokenTypeBlob)
	if err != nil {
		return Object{}, fmt.Errorf("invalid blob token: %w", err)
	}
	if claims.Subject != path {
		return Object{}, fmt.Errorf("blob token issued for another path")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return obj, nil
}

var _ Store = (*MemoryStore)(nil)
