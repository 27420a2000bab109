package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"invitely/eventhub/internal/model"
)

type EventRepository interface {
	// Get returns ErrNotFound when the event does not exist.
	Get(ctx context.Context, id string) (*model.Event, error)
	// GetMany skips ids whose document is missing.
	GetMany(ctx context.Context, ids []string) ([]*model.Event, error)
	Create(ctx context.Context, event *model.Event) error
	// Update runs fn on the current document under the event lock and writes
	// the result back. Nothing is written when fn returns an error.
	Update(ctx context.Context, id string, fn func(*model.Event) error) (*model.Event, error)
	AppendOwnerEvent(ctx context.Context, ownerID, eventID string) error
	ListOwnerEventIDs(ctx context.Context, ownerID string) ([]string, error)
}

type eventRepository struct {
	store  DocumentStore
	locker KeyLocker
}

func NewEventRepository(store DocumentStore, locker KeyLocker) EventRepository {
	return &eventRepository{store: store, locker: locker}
}

func (r *eventRepository) Get(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	found, err := getJSON(ctx, r.store, EventKey(id), &event)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &event, nil
}

func (r *eventRepository) GetMany(ctx context.Context, ids []string) ([]*model.Event, error) {
	if len(ids) == 0 {
		return []*model.Event{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = EventKey(id)
	}
	raws, err := r.store.MultiGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("multi get events: %w", err)
	}

	events := make([]*model.Event, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var event model.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		events = append(events, &event)
	}
	return events, nil
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	return setJSON(ctx, r.store, EventKey(event.ID), event)
}

func (r *eventRepository) Update(ctx context.Context, id string, fn func(*model.Event) error) (*model.Event, error) {
	unlock, err := r.locker.Lock(ctx, EventKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	event, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(event); err != nil {
		return nil, err
	}
	if err := setJSON(ctx, r.store, EventKey(id), event); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) AppendOwnerEvent(ctx context.Context, ownerID, eventID string) error {
	key := OwnerEventsKey(ownerID)
	unlock, err := r.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	var ids []string
	if _, err := getJSON(ctx, r.store, key, &ids); err != nil {
		return err
	}
	if slices.Contains(ids, eventID) {
		return nil
	}
	return setJSON(ctx, r.store, key, append(ids, eventID))
}

func (r *eventRepository) ListOwnerEventIDs(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	if _, err := getJSON(ctx, r.store, OwnerEventsKey(ownerID), &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
