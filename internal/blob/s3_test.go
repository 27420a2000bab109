package blob

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3Store() Store {
	client := s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	})
	return NewS3Store(client, "eventhub-gallery")
}

func presignExpiry(t *testing.T, raw string) int {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	expires, err := strconv.Atoi(u.Query().Get("X-Amz-Expires"))
	require.NoError(t, err)
	return expires
}

func TestS3SignedURLCapsLifetime(t *testing.T) {
	ctx := context.Background()
	s := newTestS3Store()

	raw, err := s.SignedURL(ctx, "evt/img", 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int(MaxPresignTTL.Seconds()), presignExpiry(t, raw))
	assert.LessOrEqual(t, presignExpiry(t, raw), 604800)
	assert.Contains(t, raw, "evt/img")
}

func TestS3SignedURLKeepsShortLifetime(t *testing.T) {
	raw, err := newTestS3Store().SignedURL(context.Background(), "evt/img", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3600, presignExpiry(t, raw))
}
