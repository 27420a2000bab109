package service

import (
	"errors"
	"fmt"

	"invitely/eventhub/internal/repository"
)

// Error kinds. Every error a service returns matches exactly one of these
// under errors.Is, so handlers only need to switch on the kind.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrDependency      = errors.New("dependent store failure")
)

type domainError struct {
	kind error
	msg  string
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &domainError{kind: kind, msg: msg}
}

func validationError(format string, args ...any) error {
	return &domainError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

var (
	ErrEventNotFound = newError(ErrNotFound, "event not found")
	ErrGuestNotFound = newError(ErrNotFound, "guest not found")
	ErrImageNotFound = newError(ErrNotFound, "image not found")
	ErrTokenNotFound = newError(ErrNotFound, "invalid invitation link")

	ErrNotEventOwner = newError(ErrForbidden, "event not found or unauthorized")
	ErrNotImageOwner = newError(ErrForbidden, "only the event owner or the uploader may delete this image")
	ErrNotEventGuest = newError(ErrForbidden, "guest token does not belong to this event")

	ErrInvalidCredentials = newError(ErrUnauthenticated, "invalid or expired token")

	ErrInvalidOccasion = newError(ErrValidation, "invalid occasion")
	ErrInvalidDate     = newError(ErrValidation, "date must be formatted as YYYY-MM-DD")
	ErrNoGuests        = newError(ErrValidation, "at least one guest is required")
	ErrEmptyComment    = newError(ErrValidation, "comment text is required")
	ErrInvalidImage    = newError(ErrValidation, "image data must be a base64 data URL of an image")
	ErrImageTooLarge   = newError(ErrValidation, "image exceeds the upload size limit")
	ErrInvalidInvite   = newError(ErrValidation, "invitation type must be standard or customized")
)

// storeError reports a backend failure. notFound, when non-nil, replaces
// repository.ErrNotFound. Errors already classified pass through.
func storeError(op string, err error, notFound error) error {
	var de *domainError
	switch {
	case errors.As(err, &de):
		return err
	case notFound != nil && errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrDependency, err)
	}
}
