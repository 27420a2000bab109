package model

import (
	"encoding/json"
	"slices"
	"time"
)

type UploaderType string

const (
	UploaderSender UploaderType = "sender"
	UploaderGuest  UploaderType = "guest"
)

type Like struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// LikeSet holds at most one Like per user. It is keyed by user id in memory
// and serialized as an array in insertion order.
type LikeSet struct {
	order  []string
	byUser map[string]Like
}

func NewLikeSet(likes ...Like) LikeSet {
	var s LikeSet
	for _, l := range likes {
		s.add(l)
	}
	return s
}

func (s *LikeSet) add(l Like) bool {
	if s.byUser == nil {
		s.byUser = make(map[string]Like)
	}
	if _, ok := s.byUser[l.UserID]; ok {
		return false
	}
	s.byUser[l.UserID] = l
	s.order = append(s.order, l.UserID)
	return true
}

// Toggle adds the like if the user has none and removes it otherwise.
// It reports whether the user likes the image afterwards.
func (s *LikeSet) Toggle(l Like) bool {
	if _, ok := s.byUser[l.UserID]; ok {
		delete(s.byUser, l.UserID)
		s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == l.UserID })
		return false
	}
	return s.add(l)
}

func (s LikeSet) Has(userID string) bool {
	_, ok := s.byUser[userID]
	return ok
}

func (s LikeSet) Len() int { return len(s.order) }

// List returns the likes in insertion order.
func (s LikeSet) List() []Like {
	out := make([]Like, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byUser[id])
	}
	return out
}

func (s LikeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON keeps the first entry for a user if the stored array has duplicates.
func (s *LikeSet) UnmarshalJSON(data []byte) error {
	var likes []Like
	if err := json.Unmarshal(data, &likes); err != nil {
		return err
	}
	*s = NewLikeSet(likes...)
	return nil
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Image struct {
	ID           string       `json:"id"`
	FileName     string       `json:"fileName"`
	URL          string       `json:"url,omitempty"`
	UploadedBy   string       `json:"uploadedBy"`
	UploaderName string       `json:"uploaderName"`
	UploaderType UploaderType `json:"uploaderType"`
	Likes        LikeSet      `json:"likes"`
	Comments     []Comment    `json:"comments"`
	UploadedAt   time.Time    `json:"uploadedAt"`
}

// Gallery is the ordered image list stored under GalleryKey(eventID).
type Gallery []Image

// Index returns the position of the image, or -1.
func (g Gallery) Index(imageID string) int {
	return slices.IndexFunc(g, func(img Image) bool { return img.ID == imageID })
}
