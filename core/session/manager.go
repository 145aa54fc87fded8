package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/rpgconsent/core/cookie"
	"github.com/dmitrymomot/rpgconsent/core/logger"
)

// Manager is the single source of truth for the token to session mapping and for
// session cookie I/O. It is constructed once at startup and injected into the HTTP layer.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cookies    *cookie.Manager
	cookieName string
	secure     bool

	ttl             time.Duration
	grace           time.Duration
	cleanupInterval time.Duration

	listeners *Listeners
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a session manager with the cookie contract defaults.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:        make(map[string]*Session),
		cookies:         cookie.New(),
		cookieName:      DefaultCookieName,
		ttl:             DefaultTTL,
		grace:           DefaultRotationGrace,
		cleanupInterval: DefaultCleanupInterval,
		observer:        NopObserver{},
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.listeners = NewListeners(m.logger)

	return m
}

// Ensure returns the session for token, creating a fresh anonymous session when the
// token is empty, unknown, or a rotated-out alias past its grace window.
// The second return value reports whether a session was created.
func (m *Manager) Ensure(token string) (*Session, bool) {
	if s, ok := m.Lookup(token); ok {
		return s, false
	}
	return m.create(m.now()), true
}

// Lookup returns the session for token without creating one. A rotated-out
// alias past its grace window is retired and reported as unknown.
func (m *Manager) Lookup(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	now := m.now()

	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !m.resolvable(s, token, now) {
		m.retire(s, token)
		return nil, false
	}

	s.touch(now)
	return s, true
}

// resolvable reports whether token is the current token of s or its previous
// token still inside the grace window.
func (m *Manager) resolvable(s *Session, token string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == s.token {
		return true
	}
	return token == s.previousToken && now.Sub(s.rotatedAt) <= m.grace
}

// retire removes a stale alias of s from the token map.
func (m *Manager) retire(s *Session, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[token] == s {
		delete(m.sessions, token)
	}

	s.mu.Lock()
	if s.previousToken == token {
		s.previousToken = ""
	}
	s.mu.Unlock()
}

func (m *Manager) create(now time.Time) *Session {
	token, err := generateToken()
	if err != nil {
		// crypto/rand does not fail on supported platforms; a session-less
		// request is not something the middleware can recover from.
		panic(errors.Join(ErrTokenGeneration, err))
	}

	s := newSession(token, now)

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	m.observer.SessionCreated()

	return s
}

// RotateToken issues a new token for s. The current token is kept as an alias
// of the same session until the grace window elapses, so requests already in
// flight with the old cookie keep their session. Any older alias is dropped.
func (m *Manager) RotateToken(s *Session) error {
	token, err := generateToken()
	if err != nil {
		return errors.Join(ErrTokenGeneration, err)
	}

	now := m.now()

	m.mu.Lock()
	s.mu.Lock()
	if stale := s.previousToken; stale != "" && m.sessions[stale] == s {
		delete(m.sessions, stale)
	}
	s.previousToken = s.token
	s.rotatedAt = now
	s.token = token
	s.rotate = false
	s.markLocked(now)
	m.sessions[token] = s
	s.mu.Unlock()
	m.mu.Unlock()

	m.observer.TokenRotated()

	return nil
}

// TokenFromRequest returns the session token carried by the request cookie,
// or an empty string when the cookie is absent.
func (m *Manager) TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	token, err := m.cookies.Get(r, m.cookieName)
	if err != nil {
		return ""
	}
	return token
}

// WriteCookie emits the session cookie and clears the dirty flag.
func (m *Manager) WriteCookie(w http.ResponseWriter, s *Session) error {
	err := m.cookies.Set(w, m.cookieName, s.Token(),
		cookie.WithMaxAge(int(m.ttl.Seconds())),
		cookie.WithSecure(m.secure),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCookie, err)
	}

	s.clean()
	return nil
}

// DeleteCookie emits a header that clears the session cookie.
func (m *Manager) DeleteCookie(w http.ResponseWriter) {
	m.cookies.Delete(w, m.cookieName)
}

// Stats is a coarse view of the session store.
type Stats struct {
	// Active is the number of distinct sessions currently tracked.
	Active int `json:"active"`
}

// Stats counts distinct sessions; rotation aliases are not double counted.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[*Session]struct{}, len(m.sessions))
	for _, s := range m.sessions {
		seen[s] = struct{}{}
	}
	return Stats{Active: len(seen)}
}

// Tracked reports whether s is still held by the manager.
func (m *Manager) Tracked(s *Session) bool {
	if s == nil {
		return false
	}
	token := s.Token()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[token] == s
}

// Register adds a listener invoked after every session mutation.
func (m *Manager) Register(fn Listener) {
	m.listeners.Register(fn)
}

// ObserveLogin forwards a login attempt to the configured observer.
func (m *Manager) ObserveLogin(provider string, success bool) {
	m.observer.LoginAttempt(provider, success)
}

// Sweep drops sessions idle for longer than the TTL and retires rotation aliases
// whose grace window has elapsed. It returns the number of sessions removed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := make(map[*Session]struct{})
	for token, s := range m.sessions {
		s.mu.Lock()
		switch {
		case now.Sub(s.updatedAt) > m.ttl:
			delete(m.sessions, token)
			removed[s] = struct{}{}
		case token == s.previousToken && now.Sub(s.rotatedAt) > m.grace:
			delete(m.sessions, token)
			s.previousToken = ""
		}
		s.mu.Unlock()
	}

	return len(removed)
}

// RunCleanup returns a function that sweeps idle sessions every cleanup interval
// until ctx is cancelled. It is compatible with errgroup.Group.Go.
func (m *Manager) RunCleanup(ctx context.Context) func() error {
	return func() error {
		ticker := time.NewTicker(m.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				start := time.Now()
				if n := m.Sweep(m.now()); n > 0 {
					m.logger.InfoContext(ctx, "idle sessions removed",
						logger.Component("session"),
						logger.Count("removed", n),
						logger.Count("active", m.Stats().Active),
						logger.Duration(time.Since(start)),
					)
				}
			}
		}
	}
}

func (m *Manager) notify(ctx context.Context, s *Session) {
	m.listeners.Notify(ctx, s)
}
