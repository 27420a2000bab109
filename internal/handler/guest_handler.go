package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invitely/eventhub/internal/service"
	"invitely/eventhub/pkg/response"
)

type GuestHandler struct {
	guestService service.GuestService
}

func NewGuestHandler(guestService service.GuestService) *GuestHandler {
	return &GuestHandler{guestService: guestService}
}

func (h *GuestHandler) Resolve(c *gin.Context) {
	session, err := h.guestService.ResolveToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err, "resolve guest failed")
		return
	}
	response.Success(c, gin.H{
		"eventId": session.EventID,
		"guestId": session.GuestID,
		"guest":   session.Guest,
		"event":   session.Event.Public(false),
	})
}

// profileBodyLimit leaves room for the JSON envelope around a maximal photo.
const profileBodyLimit = service.MaxProfilePhotoLength + 4<<10

type UpdateProfileRequest struct {
	Username     *string `json:"username"`
	ProfilePhoto *string `json:"profilePhoto"`
}

func (h *GuestHandler) UpdateProfile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, profileBodyLimit)
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	guest, err := h.guestService.UpdateProfile(c.Request.Context(), c.Param("token"), service.ProfileUpdate{
		Username:     req.Username,
		ProfilePhoto: req.ProfilePhoto,
	})
	if err != nil {
		writeError(c, err, "update profile failed")
		return
	}
	response.Success(c, gin.H{"guest": guest})
}

func (h *GuestHandler) Delete(c *gin.Context) {
	if err := h.guestService.DeleteSelf(c.Request.Context(), c.Param("token")); err != nil {
		writeError(c, err, "delete guest failed")
		return
	}
	response.Success(c, gin.H{"success": true})
}
