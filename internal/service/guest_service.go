package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"invitely/eventhub/internal/model"
	"invitely/eventhub/internal/repository"
)

// MaxProfilePhotoLength bounds the photo reference stored on the guest
// record, which lives inside the event document.
const MaxProfilePhotoLength = 256 << 10

// GuestSession is what a guest token resolves to.
type GuestSession struct {
	EventID string
	GuestID string
	Guest   model.Guest
	Event   *model.Event
}

// ProfileUpdate carries the fields a guest may change. Nil leaves a field as is.
type ProfileUpdate struct {
	Username     *string
	ProfilePhoto *string
}

type GuestService interface {
	// ResolveToken fails with ErrTokenNotFound for unknown and dangling tokens.
	ResolveToken(ctx context.Context, token string) (*GuestSession, error)
	UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*model.Guest, error)
	DeleteSelf(ctx context.Context, token string) error
}

type guestService struct {
	events repository.EventRepository
	tokens repository.GuestTokenRepository
	logger *zap.Logger
}

func NewGuestService(events repository.EventRepository, tokens repository.GuestTokenRepository, logger *zap.Logger) GuestService {
	return &guestService{events: events, tokens: tokens, logger: logger}
}

func (s *guestService) lookup(ctx context.Context, token string) (*model.GuestTokenRef, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	ref, err := s.tokens.Get(ctx, token)
	if err != nil {
		return nil, storeError("resolve guest token", err, ErrTokenNotFound)
	}
	return ref, nil
}

func (s *guestService) ResolveToken(ctx context.Context, token string) (*GuestSession, error) {
	ref, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	event, err := s.events.Get(ctx, ref.EventID)
	if err != nil {
		return nil, storeError("load guest event", err, ErrTokenNotFound)
	}
	idx := event.GuestIndex(ref.GuestID)
	if idx < 0 {
		return nil, ErrTokenNotFound
	}
	return &GuestSession{
		EventID: ref.EventID,
		GuestID: ref.GuestID,
		Guest:   event.Guests[idx],
		Event:   event,
	}, nil
}

func (s *guestService) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*model.Guest, error) {
	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if name == "" {
			return nil, validationError("username must not be empty")
		}
		update.Username = &name
	}
	if update.ProfilePhoto != nil && len(*update.ProfilePhoto) > MaxProfilePhotoLength {
		return nil, validationError("profile photo must be at most %d bytes", MaxProfilePhotoLength)
	}

	ref, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	var guest model.Guest
	_, err = s.events.Update(ctx, ref.EventID, func(event *model.Event) error {
		idx := event.GuestIndex(ref.GuestID)
		if idx < 0 {
			return ErrTokenNotFound
		}
		g := &event.Guests[idx]
		if update.Username != nil {
			g.Username = *update.Username
		}
		if update.ProfilePhoto != nil {
			g.ProfilePhoto = *update.ProfilePhoto
		}
		guest = *g
		return nil
	})
	if err != nil {
		return nil, storeError("update guest profile", err, ErrTokenNotFound)
	}
	return &guest, nil
}

// DeleteSelf removes the guest from the roster and then drops the token
// index entry. If the second step fails the token dangles and resolves as
// not found.
func (s *guestService) DeleteSelf(ctx context.Context, token string) error {
	ref, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}

	_, err = s.events.Update(ctx, ref.EventID, func(event *model.Event) error {
		idx := event.GuestIndex(ref.GuestID)
		if idx < 0 {
			return ErrTokenNotFound
		}
		event.Guests = append(event.Guests[:idx], event.Guests[idx+1:]...)
		return nil
	})
	if err != nil {
		err = storeError("remove guest", err, ErrTokenNotFound)
		if errors.Is(err, ErrTokenNotFound) {
			s.dropDanglingToken(ctx, token)
		}
		return err
	}

	if err := s.tokens.Delete(ctx, token); err != nil {
		return storeError("delete guest token", err, nil)
	}
	return nil
}

func (s *guestService) dropDanglingToken(ctx context.Context, token string) {
	if err := s.tokens.Delete(ctx, token); err != nil {
		s.logger.Warn("failed to delete dangling guest token", zap.Error(err))
	}
}

var _ GuestService = (*guestService)(nil)
