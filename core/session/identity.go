package session

import "context"

// BeginUserSession binds userID to the active session and requests token rotation.
// Call it exactly once per successful authentication.
func (m *Manager) BeginUserSession(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	s, err := m.Resolve(ctx)
	if err != nil {
		return err
	}

	s.bindIdentity(userID, m.now())
	m.notify(ctx, s)

	return nil
}

// EndUserSession clears the identity and data of the active session and requests
// token rotation. The session object itself survives under its new token.
func (m *Manager) EndUserSession(ctx context.Context) error {
	s, err := m.Resolve(ctx)
	if err != nil {
		return err
	}

	s.reset(m.now())
	m.notify(ctx, s)

	return nil
}

// CurrentUserID returns the identity bound to the active session,
// or an empty string when anonymous or outside a session context.
func (m *Manager) CurrentUserID(ctx context.Context) string {
	s, err := m.Resolve(ctx)
	if err != nil {
		return ""
	}
	return s.UserID()
}

// RequireUserID returns the identity bound to the active session.
// It fails with ErrNoActiveSession outside a session context and with
// ErrNotAuthenticated for anonymous sessions.
func (m *Manager) RequireUserID(ctx context.Context) (string, error) {
	s, err := m.Resolve(ctx)
	if err != nil {
		return "", err
	}
	if id := s.UserID(); id != "" {
		return id, nil
	}
	return "", ErrNotAuthenticated
}
