package services

import (
	"errors"
	"fmt"
)

// Error taxonomy returned by the engine. Handlers map these to HTTP
// status codes; they are never collapsed into each other because the
// caller must be able to distinguish "nothing there" from "wrong order
// of operations" from "not allowed".
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrValidation         = errors.New("validation failed")
)

// InvalidTransitionError names the rejected edge so the caller can tell
// a business-rule rejection from a bug.
type InvalidTransitionError struct {
	Entity string // "task" or "project"
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s transition %s → %s not allowed", e.Entity, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// storageErr wraps unexpected database failures so they propagate as a
// distinct infrastructure error and are never mistaken for a business
// rejection. The engine does not retry; retry policy belongs to the caller.
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
