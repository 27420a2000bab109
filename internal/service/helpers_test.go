package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"invitely/eventhub/internal/blob"
	"invitely/eventhub/internal/repository"
	jwtpkg "invitely/eventhub/pkg/jwt"
)

var errInjected = errors.New("injected failure")

// faultyStore fails writes to keys matching a prefix.
type faultyStore struct {
	repository.DocumentStore

	mu         sync.Mutex
	failSetKey string
	failDelKey string
}

func (s *faultyStore) failSets(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSetKey = prefix
}

func (s *faultyStore) failDeletes(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelKey = prefix
}

func (s *faultyStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	prefix := s.failSetKey
	s.mu.Unlock()
	if prefix != "" && strings.HasPrefix(key, prefix) {
		return errInjected
	}
	return s.DocumentStore.Set(ctx, key, value)
}

func (s *faultyStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	prefix := s.failDelKey
	s.mu.Unlock()
	if prefix != "" && strings.HasPrefix(key, prefix) {
		return errInjected
	}
	return s.DocumentStore.Delete(ctx, key)
}

// faultyBlobs fails every Delete.
type faultyBlobs struct {
	blob.Store
}

func (faultyBlobs) Delete(context.Context, string) error { return errInjected }

type recordingNotifier struct {
	mu      sync.Mutex
	changes []GalleryChange
}

func (n *recordingNotifier) GalleryChanged(_ string, c GalleryChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
}

func (n *recordingNotifier) types() []GalleryChangeType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]GalleryChangeType, len(n.changes))
	for i, c := range n.changes {
		out[i] = c.Type
	}
	return out
}

type fixture struct {
	store    *faultyStore
	blobs    *blob.MemoryStore
	events   EventService
	guests   GuestService
	gallery  GalleryService
	notifier *recordingNotifier
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	blobs blob.Store
}

func withBlobs(fn func(*blob.MemoryStore) blob.Store) fixtureOption {
	return func(c *fixtureConfig) {
		c.blobs = fn(c.blobs.(*blob.MemoryStore))
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	logger := zap.NewNop()

	store := &faultyStore{DocumentStore: repository.NewMemoryDocumentStore()}
	locker := repository.NewMemoryKeyLocker()
	eventRepo := repository.NewEventRepository(store, locker)
	tokenRepo := repository.NewGuestTokenRepository(store)
	galleryRepo := repository.NewGalleryRepository(store, locker)

	memBlobs := blob.NewMemoryStore("http://blobs.test",
		jwtpkg.NewManager([]byte("blob-key"), "eventhub-blob", 0))
	cfg := fixtureConfig{blobs: memBlobs}
	for _, opt := range opts {
		opt(&cfg)
	}

	ids := NewIDGenerator()
	notifier := &recordingNotifier{}
	return &fixture{
		store: store,
		blobs: memBlobs,
		events: NewEventService(eventRepo, tokenRepo, ids, EventServiceConfig{
			DefaultMessage: "You're invited to {event}!",
			QRCodeSize:     128,
		}, logger),
		guests: NewGuestService(eventRepo, tokenRepo, logger),
		gallery: NewGalleryService(eventRepo, galleryRepo, cfg.blobs, ids, notifier, GalleryServiceConfig{
			SignedURLTTL:   365 * 24 * time.Hour,
			MaxUploadBytes: 1 << 10,
		}, logger),
		notifier: notifier,
	}
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func senderParticipant(id, name string) Participant {
	return Participant{ID: id, Name: name, Type: "sender"}
}

func guestParticipant(id, name string) Participant {
	return Participant{ID: id, Name: name, Type: "guest"}
}
