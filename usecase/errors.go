package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no reasoning model credential is available.
	ErrNotConfigured = errors.New("reasoning model credential not configured")
	// ErrSessionNotFound is returned for unknown or evicted session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAttached is returned when a second connection targets a session.
	ErrSessionAttached = errors.New("session already has an active connection")
	// ErrNotStarted is returned for answers submitted before the interview started.
	ErrNotStarted = errors.New("interview not started: send start first")
	// ErrAlreadyStarted is returned for a repeated start signal.
	ErrAlreadyStarted = errors.New("interview already started")
	// ErrSessionEnded is returned for any event after the interview ended.
	ErrSessionEnded = errors.New("interview already ended")
)

// NotConfiguredError names the missing credential. It matches ErrNotConfigured.
type NotConfiguredError struct {
	Key string
}

func (e *NotConfiguredError) Error() string {
	if e.Key == "" {
		return ErrNotConfigured.Error()
	}
	return e.Key + " not configured"
}

func (e *NotConfiguredError) Is(target error) bool { return target == ErrNotConfigured }

// CapabilityError reports a failed call to the reasoning model. The session
// it occurred in is left usable. Detail, when set, tells the client how to
// recover.
type CapabilityError struct {
	Op     string
	Err    error
	Detail string
}

func (e *CapabilityError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed: %v; %s", e.Op, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }
