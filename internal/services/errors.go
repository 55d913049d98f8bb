package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ad/go-workshop-core/internal/catalog"
)

var (
	ErrUnknownStep       = catalog.ErrUnknownStep
	ErrUnknownApp        = catalog.ErrUnknownApp
	ErrStepLocked        = errors.New("step is locked")
	ErrCriterionNotMet   = errors.New("completion criterion not met")
	ErrWorkshopLocked    = errors.New("workshop is complete and read-only")
	ErrInviteNotFound    = errors.New("invite not found")
	ErrInviteExpired     = errors.New("invite expired")
	ErrInviteAlreadyUsed = errors.New("invite already used")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUserNotFound      = errors.New("user not found")
)

var domainErrors = []error{
	ErrUnknownStep, ErrUnknownApp, ErrStepLocked, ErrCriterionNotMet, ErrWorkshopLocked,
	ErrInviteNotFound, ErrInviteExpired, ErrInviteAlreadyUsed, ErrForbidden, ErrInvalidInput,
	ErrUserNotFound, ErrStoreUnavailable,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// unavailable wraps a store failure so callers can match ErrStoreUnavailable
// while the cause stays inspectable. Domain and context errors pass through.
func unavailable(err error) error {
	if err == nil || isDomainError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
