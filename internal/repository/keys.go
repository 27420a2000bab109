package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"invitely/eventhub/pkg/crypto"
)

func EventKey(eventID string) string { return "event:" + eventID }

func OwnerEventsKey(ownerID string) string { return "sender:" + ownerID + ":events" }

func GalleryKey(eventID string) string { return "gallery:" + eventID }

// GuestTokenKey stores the index under a digest of the token so a dump of
// the keyspace does not hand out guest credentials.
func GuestTokenKey(token string) string { return "guest:token:" + crypto.HashToken(token) }

// getJSON decodes the document at key into out. It reports false when the
// key is absent.
func getJSON(ctx context.Context, store DocumentStore, key string, out any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, store DocumentStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
