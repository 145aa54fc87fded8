package oauth

import "errors"

var (
	ErrNotConfigured  = errors.New("oauth provider is not configured")
	ErrStateMismatch  = errors.New("oauth state mismatch")
	ErrMissingCode    = errors.New("oauth callback missing code")
	ErrProviderDenied = errors.New("oauth provider denied authorization")
	ErrExchangeFailed = errors.New("oauth code exchange failed")
	ErrUserInfoFailed = errors.New("oauth userinfo request failed")
	ErrMissingSubject = errors.New("oauth userinfo missing subject")
	ErrBeginSession   = errors.New("failed to bind identity to session")
)
