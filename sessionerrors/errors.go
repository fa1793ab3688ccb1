package sessionerrors

import "errors"

// Session sentinel errors. Used by both session and ws packages
// to avoid circular imports.
var (
	ErrUnknownMode     = errors.New("unknown game mode")
	ErrNoActiveRound   = errors.New("no active round")
	ErrSessionClosed   = errors.New("session closed")
	ErrSessionNotFound = errors.New("session not found")
	ErrNameInvalid     = errors.New("invalid name")
)
