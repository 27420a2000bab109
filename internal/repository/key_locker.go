package repository

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be acquired before the
// context was done.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// KeyLocker is the per-document lock table. Every read-modify-write on an
// event or gallery document runs between Lock and the returned unlock.
type KeyLocker interface {
	// Lock blocks until the key is held or ctx is done. unlock is safe to
	// call more than once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
