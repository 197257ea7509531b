package bluetooth

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAdapterUnavailable is returned by Start when no compatible adapter is present.
	ErrAdapterUnavailable = errors.New("no compatible bluetooth adapter")

	// ErrAlreadyRunning is returned by Start when scanning has already been started.
	ErrAlreadyRunning = errors.New("scanner already running")

	// ErrStartTimeout is returned by Start when the platform scanner did not
	// come up in time.
	ErrStartTimeout = errors.New("timed out starting scanner")

	// ErrTimeout is returned by ProcessAdvertisementsUntil when no matching
	// advertisement arrived in time.
	ErrTimeout = errors.New("timed out waiting for advertisement")

	// ErrStopped is returned to pending waiters when scanning is stopped.
	ErrStopped = errors.New("scanner stopped")

	// ErrInvalidConfig is returned for bad options and configuration files.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SubscriberError describes a callback that panicked during dispatch.
// It's logged and counted, never returned to the caller.
type SubscriberError struct {
	ID    uint64
	Value interface{}
}

func (e *SubscriberError) Error() string {
	return fmt.Sprintf("subscriber %d: %v", e.ID, e.Value)
}

// IsRetryable reports whether err from Start is a "not ready" condition
// worth retrying later, such as a missing adapter or a slow platform.
// Lifecycle misuse and bad configuration are not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch errors.Cause(err) {
	case ErrAlreadyRunning, ErrInvalidConfig, ErrTimeout, ErrStopped:
		return false
	}
	return true
}
