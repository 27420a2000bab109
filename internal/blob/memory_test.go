package blob

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtpkg "invitely/eventhub/pkg/jwt"
)

func newTestStore() *MemoryStore {
	signer := jwtpkg.NewManager([]byte("blob-key"), "eventhub-blob", 0)
	return NewMemoryStore("http://localhost:8080/", signer)
}

func tokenFrom(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestMemoryStoreSignedURL(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Put(ctx, "evt/img", []byte("jpeg"), "image/jpeg"))

	raw, err := s.SignedURL(ctx, "evt/img", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "http://localhost:8080/blobs/evt/img?token="))

	obj, err := s.Open("evt/img", tokenFrom(t, raw))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), obj.Data)
	assert.Equal(t, "image/jpeg", obj.ContentType)
}

func TestMemoryStoreOpenRejects(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Put(ctx, "evt/a", []byte("a"), "image/png"))
	require.NoError(t, s.Put(ctx, "evt/b", []byte("b"), "image/png"))

	raw, err := s.SignedURL(ctx, "evt/a", time.Hour)
	require.NoError(t, err)

	_, err = s.Open("evt/b", tokenFrom(t, raw))
	assert.Error(t, err, "token for another path")

	expired, err := s.SignedURL(ctx, "evt/a", -time.Minute)
	require.NoError(t, err)
	_, err = s.Open("evt/a", tokenFrom(t, expired))
	assert.Error(t, err, "expired token")
}

func TestMemoryStoreDeletedBlob(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Put(ctx, "evt/img", []byte("x"), "image/gif"))

	raw, err := s.SignedURL(ctx, "evt/img", time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "evt/img"))
	require.NoError(t, s.Delete(ctx, "evt/img"))

	_, err = s.SignedURL(ctx, "evt/img", time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Open("evt/img", tokenFrom(t, raw))
	assert.ErrorIs(t, err, ErrNotFound)
}
