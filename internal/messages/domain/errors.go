package messages

import "errors"

var (
	// ErrInvalidMessage marks a submission that failed validation.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrNotFound indicates the message does not exist.
	ErrNotFound = errors.New("message not found")
)
