package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UserIDKey is the reserved storage key that maps to the session identity
// instead of the data bag.
const UserIDKey = "user_id"

// Session is the server-held state of one browser or live client.
// A Session is owned by the Manager and shared by pointer: every token alias,
// request context and live client refers to the same value, so all fields
// are guarded by the session mutex and exposed through methods.
type Session struct {
	// ID is the stable session identifier. It never changes on token rotation
	// and is safe to log, unlike the token.
	ID uuid.UUID

	mu        sync.Mutex
	token     string
	userID    string
	data      map[string]any
	createdAt time.Time
	updatedAt time.Time

	// dirty is cleared only by Manager.WriteCookie.
	dirty  bool
	rotate bool

	previousToken string
	rotatedAt     time.Time
}

func newSession(token string, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		token:     token,
		data:      make(map[string]any),
		createdAt: now,
		updatedAt: now,
	}
}

// Info is a point-in-time copy of a session, safe to render or serialize.
type Info struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Info returns a snapshot of the session. The token is deliberately omitted.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:        s.ID,
		UserID:    s.userID,
		Data:      maps.Clone(s.data),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// Token returns the current bearer token.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// PreviousToken returns the token that was replaced by the last rotation,
// or an empty string once the alias has been retired.
func (s *Session) PreviousToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previousToken
}

// UserID returns the authenticated identity, or an empty string for anonymous sessions.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// IsAuthenticated reports whether an identity is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s.UserID() != ""
}

// IsDirty reports whether the cookie must be written before the response is sent.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// NeedsRotation reports whether a privilege change requested a new token.
func (s *Session) NeedsRotation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotate
}

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

// UpdatedAt returns the time of the last resolution or mutation.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.updatedAt = now
	s.mu.Unlock()
}

// get reads a key, honouring the reserved identity key.
func (s *Session) get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == UserIDKey {
		if s.userID == "" {
			return nil, false
		}
		return s.userID, true
	}
	v, ok := s.data[key]
	return v, ok
}

// set writes a key and marks the session dirty.
// A nil or empty value for the identity key makes the session anonymous.
func (s *Session) set(key string, value any, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == UserIDKey {
		s.userID = identityString(value)
	} else {
		s.data[key] = value
	}
	s.markLocked(now)
}

func (s *Session) remove(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == UserIDKey {
		if s.userID == "" {
			return false
		}
		s.userID = ""
		s.markLocked(now)
		return true
	}
	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	s.markLocked(now)
	return true
}

// keys lists the bag keys plus the identity key when an identity is bound.
func (s *Session) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := slices.Sorted(maps.Keys(s.data))
	if s.userID != "" {
		keys = append([]string{UserIDKey}, keys...)
	}
	return keys
}

func (s *Session) clear(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	clear(s.data)
	s.markLocked(now)
}

// bindIdentity sets the identity and requests token rotation.
func (s *Session) bindIdentity(userID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.rotate = true
	s.markLocked(now)
}

// reset clears identity and data and requests token rotation.
func (s *Session) reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	clear(s.data)
	s.rotate = true
	s.markLocked(now)
}

func (s *Session) markLocked(now time.Time) {
	s.dirty = true
	s.updatedAt = now
}

func (s *Session) clean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

func identityString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case *string:
		if id == nil {
			return ""
		}
		return *id
	default:
		return fmt.Sprint(id)
	}
}

// generateToken creates a cryptographically secure random token using 32 bytes (256 bits)
// encoded as base64 URL-safe string without padding.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
