package session

import (
	"context"
	"iter"
)

// Storage exposes the active session's data as a key/value collection.
// Every call resolves the active session afresh through Manager.Resolve;
// nothing is cached between calls. The key "user_id" reads and writes the
// session identity instead of the data bag.
type Storage struct {
	m *Manager
}

// Storage returns the key/value façade bound to whatever session is active in ctx.
func (m *Manager) Storage() *Storage {
	return &Storage{m: m}
}

// Get returns the value for key, or def when the key is missing or no session is active.
func (st *Storage) Get(ctx context.Context, key string, def any) any {
	s, err := st.m.Resolve(ctx)
	if err != nil {
		return def
	}
	if v, ok := s.get(key); ok {
		return v
	}
	return def
}

// String returns the value for key when it is a string, otherwise def.
func (st *Storage) String(ctx context.Context, key, def string) string {
	if v, ok := st.Get(ctx, key, nil).(string); ok {
		return v
	}
	return def
}

// Lookup returns the value for key. Unlike Get it fails with ErrNoActiveSession
// outside of a request context and with ErrKeyNotFound for a missing key.
func (st *Storage) Lookup(ctx context.Context, key string) (any, error) {
	s, err := st.m.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	v, ok := s.get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

// Set stores value under key, marks the session dirty and notifies listeners.
func (st *Storage) Set(ctx context.Context, key string, value any) error {
	s, err := st.m.Resolve(ctx)
	if err != nil {
		return err
	}
	s.set(key, value, st.m.now())
	st.m.notify(ctx, s)
	return nil
}

// Delete removes key. A missing key yields ErrKeyNotFound and does not notify.
func (st *Storage) Delete(ctx context.Context, key string) error {
	s, err := st.m.Resolve(ctx)
	if err != nil {
		return err
	}
	if !s.remove(key, st.m.now()) {
		return ErrKeyNotFound
	}
	st.m.notify(ctx, s)
	return nil
}

// Keys returns the session keys in sorted order, "user_id" first when an identity is bound.
func (st *Storage) Keys(ctx context.Context) ([]string, error) {
	s, err := st.m.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return s.keys(), nil
}

// All iterates over a snapshot of the session entries.
// It yields nothing when no session is active.
func (st *Storage) All(ctx context.Context) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		s, err := st.m.Resolve(ctx)
		if err != nil {
			return
		}
		for _, k := range s.keys() {
			v, ok := s.get(k)
			if !ok {
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Len returns the number of session entries, counting "user_id" when set.
func (st *Storage) Len(ctx context.Context) (int, error) {
	keys, err := st.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Clear removes every entry including the identity.
func (st *Storage) Clear(ctx context.Context) error {
	s, err := st.m.Resolve(ctx)
	if err != nil {
		return err
	}
	s.clear(st.m.now())
	st.m.notify(ctx, s)
	return nil
}
