package store

import "errors"

var (
	// ErrNotFound is returned when a session id does not exist.
	ErrNotFound = errors.New("session not found")
	// ErrSessionClosed is returned when closing a session that already has an end time.
	ErrSessionClosed = errors.New("session already closed")
	// ErrEndBeforeStart is returned when a close time precedes the session's start.
	ErrEndBeforeStart = errors.New("end time before start time")
)
