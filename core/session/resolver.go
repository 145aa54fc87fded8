package session

import (
	"context"

	"github.com/dmitrymomot/rpgconsent/core/logger"
)

// Resolve locates the session for code that may run outside a plain request,
// such as a UI event arriving on a live client connection. First match wins:
//
//  1. the session placed in ctx by the session middleware;
//  2. the session carried by the live client's original request, if still tracked;
//  3. the token cached in the client's shared store, else the client's request cookie,
//     whichever still resolves;
//  4. a newly ensured session whose token is cached back into the shared store.
//
// Levels 3 and 4 reconcile the cached identity with the session.
// Without a session or client in ctx, Resolve returns ErrNoActiveSession.
func (m *Manager) Resolve(ctx context.Context) (*Session, error) {
	if s, ok := FromContext(ctx); ok {
		return s, nil
	}

	c, ok := ClientFromContext(ctx)
	if !ok {
		return nil, ErrNoActiveSession
	}

	if r := c.Request(); r != nil {
		if s, ok := FromContext(r.Context()); ok && m.Tracked(s) {
			m.touch(s)
			return s, nil
		}
	}

	return m.resolveClient(ctx, c), nil
}

func (m *Manager) resolveClient(ctx context.Context, c Client) *Session {
	shared := c.Shared()
	if shared == nil {
		shared = NewMemoryShared()
	}

	cached := m.sharedValue(ctx, c, shared, SharedTokenKey)
	s, ok := m.Lookup(cached)
	if !ok {
		s, ok = m.Lookup(m.TokenFromRequest(c.Request()))
	}
	if !ok {
		s = m.create(m.now())
	}

	if s.Token() != cached {
		m.cache(ctx, c, shared, SharedTokenKey, s.Token())
	}

	m.reconcileIdentity(ctx, c, shared, s)

	return s
}

// Remember writes the token and identity of s into the client's shared store,
// so a reconnecting client resumes s. Unlike resolution, the session always
// wins: an anonymous session removes the cached identity.
func (m *Manager) Remember(ctx context.Context, c Client, s *Session) {
	shared := c.Shared()
	if shared == nil || s == nil {
		return
	}

	if token := s.Token(); m.sharedValue(ctx, c, shared, SharedTokenKey) != token {
		m.cache(ctx, c, shared, SharedTokenKey, token)
	}

	cached := m.sharedValue(ctx, c, shared, SharedUserIDKey)
	switch current := s.UserID(); {
	case current != "" && current != cached:
		m.cache(ctx, c, shared, SharedUserIDKey, current)
	case current == "" && cached != "":
		if err := shared.Delete(ctx, SharedUserIDKey); err != nil {
			m.logger.WarnContext(ctx, "failed to clear cached session identity",
				logger.Component("session"),
				logger.ClientID(c.ID()),
				logger.Error(err),
			)
		}
	}
}

// reconcileIdentity keeps the client's cached identity in step with the session.
// The session wins when it has an identity; a session without one adopts the
// cached identity, since that means the session was recreated while the client survived.
func (m *Manager) reconcileIdentity(ctx context.Context, c Client, shared SharedStore, s *Session) {
	cached := m.sharedValue(ctx, c, shared, SharedUserIDKey)
	current := s.UserID()

	switch {
	case current != "" && current != cached:
		m.cache(ctx, c, shared, SharedUserIDKey, current)
	case current == "" && cached != "":
		s.set(UserIDKey, cached, m.now())
		m.notify(ctx, s)
	}
}

func (m *Manager) cache(ctx context.Context, c Client, shared SharedStore, key, value string) {
	if err := shared.Set(ctx, key, value); err != nil {
		m.logger.WarnContext(ctx, "failed to write client shared store",
			logger.Component("session"),
			logger.ClientID(c.ID()),
			logger.Key("key", key),
			logger.Error(err),
		)
	}
}

func (m *Manager) sharedValue(ctx context.Context, c Client, shared SharedStore, key string) string {
	v, ok, err := shared.Get(ctx, key)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to read client shared store",
			logger.Component("session"),
			logger.ClientID(c.ID()),
			logger.Key("key", key),
			logger.Error(err),
		)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (m *Manager) touch(s *Session) {
	s.touch(m.now())
}
