package repository

import (
	"context"
	"fmt"

	"invitely/eventhub/internal/model"
)

// GuestTokenRepository is the flat token -> (eventId, guestId) index. Each
// token owns a distinct key, so writes need no lock.
type GuestTokenRepository interface {
	Put(ctx context.Context, token string, ref model.GuestTokenRef) error
	// Get returns ErrNotFound for an unknown token.
	Get(ctx context.Context, token string) (*model.GuestTokenRef, error)
	Delete(ctx context.Context, token string) error
}

type guestTokenRepository struct {
	store DocumentStore
}

func NewGuestTokenRepository(store DocumentStore) GuestTokenRepository {
	return &guestTokenRepository{store: store}
}

func (r *guestTokenRepository) Put(ctx context.Context, token string, ref model.GuestTokenRef) error {
	return setJSON(ctx, r.store, GuestTokenKey(token), ref)
}

func (r *guestTokenRepository) Get(ctx context.Context, token string) (*model.GuestTokenRef, error) {
	var ref model.GuestTokenRef
	found, err := getJSON(ctx, r.store, GuestTokenKey(token), &ref)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &ref, nil
}

func (r *guestTokenRepository) Delete(ctx context.Context, token string) error {
	if err := r.store.Delete(ctx, GuestTokenKey(token)); err != nil {
		return fmt.Errorf("delete guest token: %w", err)
	}
	return nil
}
