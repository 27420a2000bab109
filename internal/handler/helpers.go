package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invitely/eventhub/internal/handler/middleware"
	"invitely/eventhub/internal/service"
	"invitely/eventhub/pkg/response"
)

var (
	ErrNoSender      = errors.New("sender not found in context")
	ErrNoParticipant = errors.New("participant not found in context")
)

func getSender(c *gin.Context) (*service.Sender, error) {
	v, exists := c.Get(middleware.ContextKeySender)
	if !exists {
		return nil, ErrNoSender
	}
	sender, ok := v.(*service.Sender)
	if !ok {
		return nil, ErrNoSender
	}
	return sender, nil
}

func getParticipant(c *gin.Context) (service.Participant, error) {
	v, exists := c.Get(middleware.ContextKeyParticipant)
	if !exists {
		return service.Participant{}, ErrNoParticipant
	}
	p, ok := v.(service.Participant)
	if !ok {
		return service.Participant{}, ErrNoParticipant
	}
	return p, nil
}

// writeError maps a service error to one response. Backend failures are
// attached to the context for the request logger and reported generically.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c, fallback)
	}
}

// requestOrigin is the scheme and host the caller's browser is on.
func requestOrigin(c *gin.Context, fallback string) string {
	if origin := c.GetHeader("Origin"); origin != "" && origin != "null" {
		return origin
	}
	return fallback
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		response.BadRequest(c, "invalid request: "+strings.TrimSpace(err.Error()))
		return false
	}
	return true
}
