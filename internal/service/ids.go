package service

import (
	"github.com/google/uuid"

	"invitely/eventhub/pkg/crypto"
)

const defaultUsernamePrefix = "guest"

// IDGenerator hands out identifiers and guest credentials.
type IDGenerator interface {
	NewID() string
	// NewGuestToken returns an unguessable bearer token; it is the guest's
	// only credential.
	NewGuestToken() (string, error)
	NewUsername() (string, error)
}

type idGenerator struct{}

func NewIDGenerator() IDGenerator {
	return idGenerator{}
}

func (idGenerator) NewID() string {
	return uuid.NewString()
}

func (idGenerator) NewGuestToken() (string, error) {
	return crypto.GenerateGuestToken()
}

func (idGenerator) NewUsername() (string, error) {
	suffix, err := crypto.GenerateCode(6, crypto.UpperAlphanumeric)
	if err != nil {
		return "", err
	}
	return defaultUsernamePrefix + suffix, nil
}
