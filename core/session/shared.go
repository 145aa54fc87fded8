package session

import (
	"context"
	"net/http"
	"sync"
)

// Keys cached in a client's shared store.
const (
	SharedTokenKey  = "session_token"
	SharedUserIDKey = "user_id"
)

// Client is a long-lived UI connection that outlives the HTTP request which opened it.
type Client interface {
	// ID identifies the client connection.
	ID() string
	// Request is the request that established the connection. It carries the
	// session cookie and, when it passed through the session middleware, the session.
	Request() *http.Request
	// Shared is the client's secondary key/value store.
	Shared() SharedStore
}

// SharedStore is a per-client string key/value store that survives session loss.
type SharedStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryShared is an in-process SharedStore.
type MemoryShared struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryShared creates an empty in-memory shared store.
func NewMemoryShared() *MemoryShared {
	return &MemoryShared{values: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (m *MemoryShared) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryShared) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

// Delete removes key. Missing keys are not an error.
func (m *MemoryShared) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}
