package middleware

import "errors"

var (
	// ErrUnauthorized is passed to the session error handler when a route requires an authenticated session.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden is passed to the session error handler when a guest-only route is hit by an authenticated session.
	ErrForbidden = errors.New("already authenticated")
)
