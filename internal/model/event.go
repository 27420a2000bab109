package model

import (
	"strings"
	"time"
)

type Occasion string

const (
	OccasionWedding      Occasion = "wedding"
	OccasionBirthday     Occasion = "birthday"
	OccasionAnniversary  Occasion = "anniversary"
	OccasionBabyShower   Occasion = "baby shower"
	OccasionEngagement   Occasion = "engagement"
	OccasionGraduation   Occasion = "graduation"
	OccasionHousewarming Occasion = "housewarming"
	OccasionFestival     Occasion = "festival"
	OccasionRetirement   Occasion = "retirement"
	OccasionOther        Occasion = "other"
)

var occasions = map[Occasion]struct{}{
	OccasionWedding:      {},
	OccasionBirthday:     {},
	OccasionAnniversary:  {},
	OccasionBabyShower:   {},
	OccasionEngagement:   {},
	OccasionGraduation:   {},
	OccasionHousewarming: {},
	OccasionFestival:     {},
	OccasionRetirement:   {},
	OccasionOther:        {},
}

// ParseOccasion lower-cases the input and folds '-', '_' and repeated spaces
// into single spaces before matching, so "Baby_Shower" parses as OccasionBabyShower.
func ParseOccasion(s string) (Occasion, bool) {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(s))
	o := Occasion(strings.Join(strings.Fields(s), " "))
	_, ok := occasions[o]
	return o, ok
}

// DateLayout is the calendar date format of Event.Date.
const DateLayout = "2006-01-02"

type InvitationType string

const (
	InvitationStandard   InvitationType = "standard"
	InvitationCustomized InvitationType = "customized"
)

// Event is persisted as one document under EventKey(id). The guest roster is
// embedded, so every roster mutation rewrites the whole document.
type Event struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"ownerId"`
	Name            string     `json:"name"`
	Occasion        Occasion   `json:"occasion"`
	Description     string     `json:"description,omitempty"`
	Date            string     `json:"date"`
	Guests          []Guest    `json:"guests"`
	InvitationsSent bool       `json:"invitationsSent"`
	SentAt          *time.Time `json:"sentAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// GuestIndex returns the position of the guest in the roster, or -1.
func (e *Event) GuestIndex(guestID string) int {
	for i := range e.Guests {
		if e.Guests[i].ID == guestID {
			return i
		}
	}
	return -1
}

type Guest struct {
	ID            string    `json:"id"`
	Phone         string    `json:"phone"`
	CustomMessage string    `json:"customMessage,omitempty"`
	CustomName    string    `json:"customName,omitempty"`
	GuestToken    string    `json:"guestToken"`
	Username      string    `json:"username"`
	ProfilePhoto  string    `json:"profilePhoto,omitempty"`
	AddedAt       time.Time `json:"addedAt"`
}

// GuestInput is what a sender supplies per invitee.
type GuestInput struct {
	Phone         string `json:"phone"`
	CustomMessage string `json:"customMessage"`
	CustomName    string `json:"customName"`
}

// GuestProfile is the projection of a guest that other participants may see.
type GuestProfile struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

func (g Guest) Profile() GuestProfile {
	return GuestProfile{ID: g.ID, Username: g.Username, ProfilePhoto: g.ProfilePhoto}
}

// PublicEvent carries the event fields visible without owning the event.
type PublicEvent struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Occasion        Occasion       `json:"occasion"`
	Description     string         `json:"description,omitempty"`
	Date            string         `json:"date"`
	InvitationsSent bool           `json:"invitationsSent"`
	Guests          []GuestProfile `json:"guests,omitempty"`
}

// Public drops the owner id, phone numbers and guest tokens.
func (e *Event) Public(withGuests bool) PublicEvent {
	pub := PublicEvent{
		ID:              e.ID,
		Name:            e.Name,
		Occasion:        e.Occasion,
		Description:     e.Description,
		Date:            e.Date,
		InvitationsSent: e.InvitationsSent,
	}
	if withGuests {
		pub.Guests = make([]GuestProfile, 0, len(e.Guests))
		for _, g := range e.Guests {
			pub.Guests = append(pub.Guests, g.Profile())
		}
	}
	return pub
}

// GuestTokenRef is the value stored in the guest-token index.
type GuestTokenRef struct {
	EventID string `json:"eventId"`
	GuestID string `json:"guestId"`
}
