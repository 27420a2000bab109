package service

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"invitely/eventhub/internal/blob"
	"invitely/eventhub/internal/model"
	"invitely/eventhub/internal/repository"
)

const maxCommentLength = 2000

// Participant is whoever is acting on a gallery: a sender authenticated by
// bearer token or a guest authenticated by guest token.
type Participant struct {
	ID   string
	Name string
	Type model.UploaderType
}

type GalleryChangeType string

const (
	GalleryImageAdded   GalleryChangeType = "image_added"
	GalleryImageDeleted GalleryChangeType = "image_deleted"
	GalleryLikeToggled  GalleryChangeType = "like_toggled"
	GalleryCommentAdded GalleryChangeType = "comment_added"
)

type GalleryChange struct {
	Type    GalleryChangeType `json:"type"`
	ImageID string            `json:"imageId"`
	UserID  string            `json:"userId"`
}

// GalleryNotifier is told about every committed gallery mutation.
type GalleryNotifier interface {
	GalleryChanged(eventID string, change GalleryChange)
}

type nopNotifier struct{}

func (nopNotifier) GalleryChanged(string, GalleryChange) {}

type GalleryService interface {
	Upload(ctx context.Context, eventID string, p Participant, imageData string) (*model.Image, error)
	List(ctx context.Context, eventID string) ([]model.Image, error)
	ToggleLike(ctx context.Context, eventID, imageID string, p Participant) (*model.Image, error)
	AddComment(ctx context.Context, eventID, imageID string, p Participant, text string) (*model.Comment, error)
	Delete(ctx context.Context, eventID, imageID string, p Participant) error
}

type GalleryServiceConfig struct {
	SignedURLTTL   time.Duration
	MaxUploadBytes int64
}

type galleryService struct {
	events   repository.EventRepository
	gallery  repository.GalleryRepository
	blobs    blob.Store
	ids      IDGenerator
	notifier GalleryNotifier
	cfg      GalleryServiceConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewGalleryService(
	events repository.EventRepository,
	gallery repository.GalleryRepository,
	blobs blob.Store,
	ids IDGenerator,
	notifier GalleryNotifier,
	cfg GalleryServiceConfig,
	logger *zap.Logger,
) GalleryService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &galleryService{
		events:   events,
		gallery:  gallery,
		blobs:    blobs,
		ids:      ids,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// ImagePath is the stable blob path of an image.
func ImagePath(eventID, imageID string) string {
	return eventID + "/" + imageID
}

// decodeImage accepts a base64 data URL (or bare base64) and returns the
// bytes and sniffed content type.
func decodeImage(imageData string, maxBytes int64) ([]byte, string, error) {
	payload := strings.TrimSpace(imageData)
	if strings.HasPrefix(payload, "data:") {
		header, data, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", ErrInvalidImage
		}
		payload = data
	}
	if payload == "" {
		return nil, "", ErrInvalidImage
	}
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, "", ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrInvalidImage
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", ErrImageTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", ErrInvalidImage
	}
	return data, contentType, nil
}

// Upload stores the bytes before taking the gallery lock so slow blob I/O
// never blocks other gallery mutations.
func (s *galleryService) Upload(ctx context.Context, eventID string, p Participant, imageData string) (*model.Image, error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return nil, storeError("get event", err, ErrEventNotFound)
	}
	data, contentType, err := decodeImage(imageData, s.cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	imageID := s.ids.NewID()
	path := ImagePath(eventID, imageID)
	if err := s.blobs.Put(ctx, path, data, contentType); err != nil {
		return nil, storeError("store image", err, nil)
	}

	image := model.Image{
		ID:           imageID,
		FileName:     path,
		UploadedBy:   p.ID,
		UploaderName: p.Name,
		UploaderType: p.Type,
		Likes:        model.NewLikeSet(),
		Comments:     []model.Comment{},
		UploadedAt:   s.now().UTC(),
	}
	_, err = s.gallery.Update(ctx, eventID, func(g *model.Gallery) error {
		*g = append(*g, image)
		return nil
	})
	if err != nil {
		s.deleteBlob(ctx, path)
		return nil, storeError("append image", err, nil)
	}

	s.notifier.GalleryChanged(eventID, GalleryChange{Type: GalleryImageAdded, ImageID: imageID, UserID: p.ID})
	s.withURL(ctx, &image)
	return &image, nil
}

// List signs a fresh URL for every image. Stored documents are not touched.
func (s *galleryService) List(ctx context.Context, eventID string) ([]model.Image, error) {
	gallery, err := s.gallery.Get(ctx, eventID)
	if err != nil {
		return nil, storeError("get gallery", err, nil)
	}
	images := []model.Image(gallery)
	for i := range images {
		s.withURL(ctx, &images[i])
	}
	return images, nil
}

// withURL sets image.URL; a signing failure leaves it empty.
func (s *galleryService) withURL(ctx context.Context, image *model.Image) {
	url, err := s.blobs.SignedURL(ctx, image.FileName, s.cfg.SignedURLTTL)
	if err != nil {
		s.logger.Warn("failed to sign image url",
			zap.String("file_name", image.FileName), zap.Error(err))
		image.URL = ""
		return
	}
	image.URL = url
}

func (s *galleryService) ToggleLike(ctx context.Context, eventID, imageID string, p Participant) (*model.Image, error) {
	var image model.Image
	_, err := s.gallery.Update(ctx, eventID, func(g *model.Gallery) error {
		idx := g.Index(imageID)
		if idx < 0 {
			return ErrImageNotFound
		}
		(*g)[idx].Likes.Toggle(model.Like{UserID: p.ID, Username: p.Name})
		image = (*g)[idx]
		return nil
	})
	if err != nil {
		return nil, storeError("toggle like", err, nil)
	}

	s.notifier.GalleryChanged(eventID, GalleryChange{Type: GalleryLikeToggled, ImageID: imageID, UserID: p.ID})
	s.withURL(ctx, &image)
	return &image, nil
}

func (s *galleryService) AddComment(ctx context.Context, eventID, imageID string, p Participant, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return nil, validationError("comment must be at most %d characters", maxCommentLength)
	}

	comment := model.Comment{
		ID:       s.ids.NewID(),
		UserID:   p.ID,
		Username: p.Name,
		Text:     text,
	}
	_, err := s.gallery.Update(ctx, eventID, func(g *model.Gallery) error {
		idx := g.Index(imageID)
		if idx < 0 {
			return ErrImageNotFound
		}
		// Stamped under the lock so timestamps follow arrival order.
		comment.CreatedAt = s.now().UTC()
		(*g)[idx].Comments = append((*g)[idx].Comments, comment)
		return nil
	})
	if err != nil {
		return nil, storeError("add comment", err, nil)
	}

	s.notifier.GalleryChanged(eventID, GalleryChange{Type: GalleryCommentAdded, ImageID: imageID, UserID: p.ID})
	return &comment, nil
}

// Delete is allowed for the event owner and for the uploader. The blob is
// removed first and best-effort; the gallery document decides what exists.
func (s *galleryService) Delete(ctx context.Context, eventID, imageID string, p Participant) error {
	gallery, err := s.gallery.Get(ctx, eventID)
	if err != nil {
		return storeError("get gallery", err, nil)
	}
	idx := gallery.Index(imageID)
	if idx < 0 {
		return ErrImageNotFound
	}
	image := gallery[idx]

	allowed, err := s.canDelete(ctx, eventID, image, p)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotImageOwner
	}

	s.deleteBlob(ctx, image.FileName)

	_, err = s.gallery.Update(ctx, eventID, func(g *model.Gallery) error {
		idx := g.Index(imageID)
		if idx < 0 {
			return ErrImageNotFound
		}
		*g = append((*g)[:idx], (*g)[idx+1:]...)
		return nil
	})
	if err != nil {
		return storeError("delete image", err, nil)
	}

	s.notifier.GalleryChanged(eventID, GalleryChange{Type: GalleryImageDeleted, ImageID: imageID, UserID: p.ID})
	return nil
}

func (s *galleryService) canDelete(ctx context.Context, eventID string, image model.Image, p Participant) (bool, error) {
	if p.ID != "" && image.UploadedBy == p.ID {
		return true, nil
	}
	if p.Type != model.UploaderSender {
		return false, nil
	}
	event, err := s.events.Get(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeError("get event", err, nil)
	}
	return event.OwnerID == p.ID, nil
}

func (s *galleryService) deleteBlob(ctx context.Context, path string) {
	if err := s.blobs.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to delete image blob", zap.String("file_name", path), zap.Error(err))
	}
}

var _ GalleryService = (*galleryService)(nil)
