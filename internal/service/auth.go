package service

import (
	"context"

	jwtpkg "invitely/eventhub/pkg/jwt"
)

const defaultSenderName = "Organizer"

// Sender is an authenticated event organizer.
type Sender struct {
	ID   string
	Name string
}

// SenderAuthenticator resolves a sender bearer token issued by the identity
// provider.
type SenderAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*Sender, error)
}

type jwtAuthenticator struct {
	jwtManager *jwtpkg.Manager
}

// NewJWTAuthenticator accepts HS256 access tokens signed with the shared
// identity provider key.
func NewJWTAuthenticator(jwtManager *jwtpkg.Manager) SenderAuthenticator {
	return &jwtAuthenticator{jwtManager: jwtManager}
}

func (a *jwtAuthenticator) Authenticate(_ context.Context, token string) (*Sender, error) {
	claims, err := a.jwtManager.ValidateType(token, jwtpkg.TokenTypeAccess)
	if err != nil || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}
	return NewSender(claims.Subject, claims.Name), nil
}

// NewSender fills in the default display name.
func NewSender(id, name string) *Sender {
	if name == "" {
		name = defaultSenderName
	}
	return &Sender{ID: id, Name: name}
}

var _ SenderAuthenticator = (*jwtAuthenticator)(nil)
