package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"invitely/eventhub/internal/model"
	"invitely/eventhub/internal/service"
	"invitely/eventhub/pkg/response"
)

type EventHandler struct {
	eventService service.EventService
	publicOrigin string
}

func NewEventHandler(eventService service.EventService, publicOrigin string) *EventHandler {
	return &EventHandler{eventService: eventService, publicOrigin: publicOrigin}
}

type CreateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Occasion    string `json:"occasion" binding:"required"`
	Description string `json:"description"`
	Date        string `json:"date" binding:"required"`
}

func (h *EventHandler) Create(c *gin.Context) {
	sender, err := getSender(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), sender.ID, service.CreateEventInput{
		Name:        req.Name,
		Occasion:    req.Occasion,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeError(c, err, "create event failed")
		return
	}
	response.Success(c, gin.H{"event": event})
}

func (h *EventHandler) List(c *gin.Context) {
	sender, err := getSender(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	events, err := h.eventService.ListEvents(c.Request.Context(), sender.ID)
	if err != nil {
		writeError(c, err, "list events failed")
		return
	}
	response.Success(c, gin.H{"events": events})
}

// Get returns the whole event to its owner and the public projection to
// everyone else.
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "get event failed")
		return
	}

	if sender, err := getSender(c); err == nil && sender.ID == event.OwnerID {
		response.Success(c, gin.H{"event": event})
		return
	}
	response.Success(c, gin.H{"event": event.Public(true)})
}

type AddGuestsRequest struct {
	Guests []model.GuestInput `json:"guests" binding:"required"`
}

func (h *EventHandler) AddGuests(c *gin.Context) {
	sender, err := getSender(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req AddGuestsRequest
	if !bindJSON(c, &req) {
		return
	}

	guests, err := h.eventService.AddGuests(c.Request.Context(), sender.ID, c.Param("id"), req.Guests)
	if err != nil {
		writeOwnerError(c, err, "add guests failed")
		return
	}
	response.Success(c, gin.H{"guests": guests})
}

type SendInvitationsRequest struct {
	CardImage      string `json:"cardImage"`
	Message        string `json:"message"`
	InvitationType string `json:"invitationType"`
}

func (h *EventHandler) SendInvitations(c *gin.Context) {
	sender, err := getSender(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req SendInvitationsRequest
	if !bindJSON(c, &req) {
		return
	}

	invitations, err := h.eventService.SendInvitations(c.Request.Context(), sender.ID, c.Param("id"), service.SendInvitationsInput{
		CardImage:      req.CardImage,
		Message:        req.Message,
		InvitationType: model.InvitationType(req.InvitationType),
		Origin:         requestOrigin(c, h.publicOrigin),
	})
	if err != nil {
		writeOwnerError(c, err, "send invitations failed")
		return
	}
	response.Success(c, gin.H{
		"success":     true,
		"invitations": invitations,
		"message":     "Invitations prepared. Deliver them through your messaging channel.",
	})
}

// writeOwnerError reports a foreign event as missing so that event ids
// cannot be probed through owner-only routes.
func writeOwnerError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, service.ErrNotEventOwner) {
		response.NotFound(c, err.Error())
		return
	}
	writeError(c, err, fallback)
}
