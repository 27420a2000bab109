package repository

import (
	"context"

	"invitely/eventhub/internal/model"
)

type GalleryRepository interface {
	// Get returns an empty gallery for an event nobody has uploaded to.
	Get(ctx context.Context, eventID string) (model.Gallery, error)
	// Update runs fn under the gallery lock and persists the result unless
	// fn returns an error.
	Update(ctx context.Context, eventID string, fn func(*model.Gallery) error) (model.Gallery, error)
}

type galleryRepository struct {
	store  DocumentStore
	locker KeyLocker
}

func NewGalleryRepository(store DocumentStore, locker KeyLocker) GalleryRepository {
	return &galleryRepository{store: store, locker: locker}
}

func (r *galleryRepository) Get(ctx context.Context, eventID string) (model.Gallery, error) {
	gallery := model.Gallery{}
	if _, err := getJSON(ctx, r.store, GalleryKey(eventID), &gallery); err != nil {
		return nil, err
	}
	return gallery, nil
}

func (r *galleryRepository) Update(ctx context.Context, eventID string, fn func(*model.Gallery) error) (model.Gallery, error) {
	key := GalleryKey(eventID)
	unlock, err := r.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	gallery, err := r.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := fn(&gallery); err != nil {
		return nil, err
	}
	if err := setJSON(ctx, r.store, key, gallery); err != nil {
		return nil, err
	}
	return gallery, nil
}
