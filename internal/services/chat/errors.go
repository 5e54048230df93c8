// File: internal/services/chat/errors.go
package chat

import "errors"

var (
	// ErrBusy is returned while another request of the same session is in flight.
	ErrBusy = errors.New("a request is already in flight")
	// ErrEmptyInput is returned for blank text or empty audio.
	ErrEmptyInput = errors.New("input is empty")
	// ErrNothingToRegenerate is returned when no assistant message exists yet.
	ErrNothingToRegenerate = errors.New("no assistant message to regenerate")
	// ErrWrongMode is returned when an operation does not fit the conversation mode.
	ErrWrongMode = errors.New("operation not available in this conversation mode")
)
