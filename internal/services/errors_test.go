package services

import (
	"errors"
	"strings"
	"testing"
)

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{Entity: "task", From: "pending", To: "completed"}

	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatal("InvalidTransitionError must match ErrInvalidTransition")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("InvalidTransitionError must not match unrelated sentinels")
	}
	for _, part := range []string{"task", "pending", "completed"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("message %q missing %q", err.Error(), part)
		}
	}
}

func TestStorageErrWrapping(t *testing.T) {
	inner := errors.New("connection refused")
	err := storageErr(inner)

	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatal("storageErr must wrap ErrStorageUnavailable")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("message %q lost the cause", err.Error())
	}
}
