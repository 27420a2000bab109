package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"invitely/eventhub/internal/model"
	"invitely/eventhub/internal/repository"
)

type CreateEventInput struct {
	Name        string
	Occasion    string
	Description string
	Date        string
}

type SendInvitationsInput struct {
	CardImage      string
	Message        string
	InvitationType model.InvitationType
	// Origin is the scheme and host guest links point at.
	Origin string
}

type EventService interface {
	CreateEvent(ctx context.Context, ownerID string, in CreateEventInput) (*model.Event, error)
	ListEvents(ctx context.Context, ownerID string) ([]*model.Event, error)
	GetEvent(ctx context.Context, eventID string) (*model.Event, error)
	AddGuests(ctx context.Context, ownerID, eventID string, inputs []model.GuestInput) ([]model.Guest, error)
	SendInvitations(ctx context.Context, ownerID, eventID string, in SendInvitationsInput) ([]InvitationPayload, error)
}

type EventServiceConfig struct {
	DefaultMessage string
	QRCodeSize     int
}

type eventService struct {
	events   repository.EventRepository
	tokens   repository.GuestTokenRepository
	ids      IDGenerator
	composer invitationComposer
	logger   *zap.Logger
	now      func() time.Time
}

func NewEventService(
	events repository.EventRepository,
	tokens repository.GuestTokenRepository,
	ids IDGenerator,
	cfg EventServiceConfig,
	logger *zap.Logger,
) EventService {
	return &eventService{
		events:   events,
		tokens:   tokens,
		ids:      ids,
		composer: invitationComposer{defaultMessage: cfg.DefaultMessage, qrSize: cfg.QRCodeSize},
		logger:   logger,
		now:      time.Now,
	}
}

// CreateEvent writes the event and then appends it to the owner's list. A
// failure between the two writes leaves an event its owner cannot list.
func (s *eventService) CreateEvent(ctx context.Context, ownerID string, in CreateEventInput) (*model.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("event name is required")
	}
	occasion, ok := model.ParseOccasion(in.Occasion)
	if !ok {
		return nil, ErrInvalidOccasion
	}
	date := strings.TrimSpace(in.Date)
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}

	event := &model.Event{
		ID:          s.ids.NewID(),
		OwnerID:     ownerID,
		Name:        name,
		Occasion:    occasion,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		Guests:      []model.Guest{},
		CreatedAt:   s.now().UTC(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, storeError("create event", err, nil)
	}
	if err := s.events.AppendOwnerEvent(ctx, ownerID, event.ID); err != nil {
		return nil, storeError("list event for owner", err, nil)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, ownerID string) ([]*model.Event, error) {
	ids, err := s.events.ListOwnerEventIDs(ctx, ownerID)
	if err != nil {
		return nil, storeError("list owner events", err, nil)
	}
	events, err := s.events.GetMany(ctx, ids)
	if err != nil {
		return nil, storeError("load events", err, nil)
	}
	return events, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, storeError("get event", err, ErrEventNotFound)
	}
	return event, nil
}

func (s *eventService) AddGuests(ctx context.Context, ownerID, eventID string, inputs []model.GuestInput) ([]model.Guest, error) {
	if len(inputs) == 0 {
		return nil, ErrNoGuests
	}

	now := s.now().UTC()
	newGuests := make([]model.Guest, 0, len(inputs))
	for i, in := range inputs {
		phone := NormalizePhone(in.Phone)
		if phone == "" {
			return nil, validationError("guest %d: phone is required", i+1)
		}
		token, err := s.ids.NewGuestToken()
		if err != nil {
			return nil, fmt.Errorf("generate guest token: %w", err)
		}
		username, err := s.ids.NewUsername()
		if err != nil {
			return nil, fmt.Errorf("generate username: %w", err)
		}
		newGuests = append(newGuests, model.Guest{
			ID:            s.ids.NewID(),
			Phone:         phone,
			CustomMessage: strings.TrimSpace(in.CustomMessage),
			CustomName:    strings.TrimSpace(in.CustomName),
			GuestToken:    token,
			Username:      username,
			AddedAt:       now,
		})
	}

	_, err := s.events.Update(ctx, eventID, func(event *model.Event) error {
		if event.OwnerID != ownerID {
			return ErrNotEventOwner
		}
		event.Guests = append(event.Guests, newGuests...)
		return nil
	})
	if err != nil {
		return nil, storeError("add guests", err, ErrEventNotFound)
	}

	// Index entries are written only after the roster commits, so a token
	// never resolves before its guest exists.
	for i, g := range newGuests {
		ref := model.GuestTokenRef{EventID: eventID, GuestID: g.ID}
		if err := s.tokens.Put(ctx, g.GuestToken, ref); err != nil {
			s.rollbackGuests(ctx, eventID, newGuests[i:])
			return nil, storeError("index guest token", err, nil)
		}
	}
	return newGuests, nil
}

// rollbackGuests removes guests whose token was never indexed so that no
// guest exists without an index entry.
func (s *eventService) rollbackGuests(ctx context.Context, eventID string, guests []model.Guest) {
	drop := make(map[string]struct{}, len(guests))
	for _, g := range guests {
		drop[g.ID] = struct{}{}
	}
	_, err := s.events.Update(ctx, eventID, func(event *model.Event) error {
		kept := event.Guests[:0]
		for _, g := range event.Guests {
			if _, ok := drop[g.ID]; !ok {
				kept = append(kept, g)
			}
		}
		event.Guests = kept
		return nil
	})
	if err != nil {
		s.logger.Error("failed to remove unindexed guests",
			zap.String("event_id", eventID), zap.Int("guests", len(guests)), zap.Error(err))
	}
}

func (s *eventService) SendInvitations(ctx context.Context, ownerID, eventID string, in SendInvitationsInput) ([]InvitationPayload, error) {
	switch in.InvitationType {
	case "":
		in.InvitationType = model.InvitationStandard
	case model.InvitationStandard, model.InvitationCustomized:
	default:
		return nil, ErrInvalidInvite
	}

	var payloads []InvitationPayload
	_, err := s.events.Update(ctx, eventID, func(event *model.Event) error {
		if event.OwnerID != ownerID {
			return ErrNotEventOwner
		}
		payloads = make([]InvitationPayload, 0, len(event.Guests))
		for _, g := range event.Guests {
			p, err := s.composer.compose(event, g, in)
			if err != nil {
				return err
			}
			payloads = append(payloads, p)
		}
		if !event.InvitationsSent {
			sentAt := s.now().UTC()
			event.InvitationsSent = true
			event.SentAt = &sentAt
		}
		return nil
	})
	if err != nil {
		return nil, storeError("send invitations", err, ErrEventNotFound)
	}
	return payloads, nil
}

var _ EventService = (*eventService)(nil)
