package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"invitely/eventhub/internal/model"
	"invitely/eventhub/internal/service"
	"invitely/eventhub/pkg/response"
)

const (
	ContextKeySender      = "sender"
	ContextKeyParticipant = "participant"

	// HeaderGuestToken carries a guest token on routes shared with senders.
	HeaderGuestToken = "X-Guest-Token"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, "invalid or expired token")
	case errors.Is(err, service.ErrNotFound):
		response.Unauthorized(c, "invalid guest token")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c, "authentication failed")
	}
}

// SenderAuth requires a sender bearer token.
func SenderAuth(authn service.SenderAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing or malformed authorization header")
			return
		}
		sender, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortAuthError(c, err)
			return
		}
		c.Set(ContextKeySender, sender)
		c.Next()
	}
}

// OptionalSenderAuth records the sender when a valid bearer token is
// present and otherwise lets the request through anonymously.
func OptionalSenderAuth(authn service.SenderAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if sender, err := authn.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(ContextKeySender, sender)
			}
		}
		c.Next()
	}
}

// ParticipantAuth accepts either a guest token for the event named by
// eventParam or a sender bearer token.
func ParticipantAuth(authn service.SenderAuthenticator, guests service.GuestService, eventParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if guestToken := c.GetHeader(HeaderGuestToken); guestToken != "" {
			session, err := guests.ResolveToken(c.Request.Context(), guestToken)
			if err != nil {
				abortAuthError(c, err)
				return
			}
			if session.EventID != c.Param(eventParam) {
				abortAuthError(c, service.ErrNotEventGuest)
				return
			}
			c.Set(ContextKeyParticipant, service.Participant{
				ID:   session.GuestID,
				Name: session.Guest.Username,
				Type: model.UploaderGuest,
			})
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing credentials")
			return
		}
		sender, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortAuthError(c, err)
			return
		}
		c.Set(ContextKeySender, sender)
		c.Set(ContextKeyParticipant, service.Participant{
			ID:   sender.ID,
			Name: sender.Name,
			Type: model.UploaderSender,
		})
		c.Next()
	}
}
