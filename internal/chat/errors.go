package chat

import "errors"

// Validation errors. These are rejected before any I/O; no engine
// state is mutated for them.
var (
	ErrEmptyMessage   = errors.New("message body is empty")
	ErrMessageTooLong = errors.New("message body exceeds maximum length")
)
