package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrResourceNotFound    = fmt.Errorf("parking resource %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrContactNotFound     = fmt.Errorf("contact %w", ErrNotFound)
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidWindow = errors.New("invalid time window: end must be after start")
	ErrInvalidStatus = errors.New("invalid reservation status")
)

var (
	ErrNoAvailability    = errors.New("no available spots")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrResourceInactive  = errors.New("parking resource is not accepting bookings")

	// ErrStaleStatus is returned by the store when a transition's
	// compare-and-set lost a race. Callers re-read and re-evaluate.
	ErrStaleStatus = errors.New("reservation status changed concurrently")
)

// IsCallerError reports whether err is the caller's fault rather than a
// failure of the system.
func IsCallerError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrUnauthenticated, ErrForbidden,
		ErrValidation, ErrInvalidWindow, ErrInvalidStatus,
		ErrNoAvailability, ErrInvalidTransition, ErrResourceInactive,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
