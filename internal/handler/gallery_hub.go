package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"go.uber.org/zap"

	"invitely/eventhub/internal/service"
)

const sessionKeyEventID = "event_id"

// GalleryHub pushes gallery changes to websocket clients watching an event.
// Messages only say what changed; clients re-read the gallery to get fresh
// signed URLs.
type GalleryHub struct {
	m      *melody.Melody
	logger *zap.Logger
}

type galleryMessage struct {
	EventID string `json:"eventId"`
	service.GalleryChange
}

func NewGalleryHub(logger *zap.Logger) *GalleryHub {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleDisconnect(func(s *melody.Session) {
		eventID, _ := s.Get(sessionKeyEventID)
		logger.Debug("gallery client disconnected", zap.Any("event_id", eventID))
	})
	m.HandleError(func(s *melody.Session, err error) {
		logger.Debug("gallery websocket error", zap.Error(err))
	})

	return &GalleryHub{m: m, logger: logger}
}

func (h *GalleryHub) Handle(c *gin.Context) {
	keys := map[string]any{sessionKeyEventID: c.Param("eventId")}
	if err := h.m.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		h.logger.Warn("failed to upgrade gallery websocket", zap.Error(err))
	}
}

func (h *GalleryHub) GalleryChanged(eventID string, change service.GalleryChange) {
	msg, err := json.Marshal(galleryMessage{EventID: eventID, GalleryChange: change})
	if err != nil {
		h.logger.Error("failed to encode gallery change", zap.Error(err))
		return
	}
	err = h.m.BroadcastFilter(msg, func(s *melody.Session) bool {
		id, exists := s.Get(sessionKeyEventID)
		return exists && id == eventID
	})
	if err != nil {
		h.logger.Warn("failed to broadcast gallery change", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (h *GalleryHub) Close() error {
	return h.m.Close()
}

var _ service.GalleryNotifier = (*GalleryHub)(nil)
