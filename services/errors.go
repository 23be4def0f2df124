package services

import (
	"errors"
	"fmt"

	"vpay-gamification/repository"
)

// Error kinds returned by the engine. Match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation error")
	ErrStorage      = errors.New("storage error")
	ErrComputation  = errors.New("computation error")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidStateErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// storageErr tags a persistence failure; repository.ErrNotFound becomes ErrNotFound.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrValidation, ErrInvalidState, ErrStorage, ErrComputation} {
		if errors.Is(err, kind) {
			return err
		}
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

const maxCASAttempts = 5

// retryOnConflict reruns fn while it loses optimistic-version races.
func retryOnConflict(op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: gave up after %d attempts: %w", op, ErrStorage, maxCASAttempts, err)
}
