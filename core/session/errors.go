package session

import "errors"

var (
	// ErrNoActiveSession is returned when the active session is requested outside of any
	// request or live client context. It signals a programming error, not a runtime condition.
	ErrNoActiveSession = errors.New("no active session: accessed outside of request context")
	// ErrKeyNotFound is returned when a key is read or deleted that is not in the session.
	ErrKeyNotFound = errors.New("session key not found")
	// ErrNotAuthenticated is returned when an identity is required but the session is anonymous.
	ErrNotAuthenticated = errors.New("session is not authenticated")
	// ErrInvalidUserID is returned when binding an empty identity to a session.
	ErrInvalidUserID = errors.New("user ID must not be empty")
	// ErrTokenGeneration is returned when token generation fails.
	ErrTokenGeneration = errors.New("failed to generate token")
	// ErrWriteCookie is returned when the session cookie could not be written.
	ErrWriteCookie = errors.New("failed to write session cookie")
)
