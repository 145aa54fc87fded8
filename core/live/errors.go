package live

import "errors"

var (
	// ErrUnknownEvent is returned for an inbound event type without a handler.
	ErrUnknownEvent = errors.New("unknown live event")
	// ErrInvalidEvent is returned for an inbound event that is missing required fields.
	ErrInvalidEvent = errors.New("invalid live event")
	// ErrHubClosed is returned when connecting to a hub that has been shut down.
	ErrHubClosed = errors.New("live hub is closed")
)
