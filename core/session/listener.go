package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/rpgconsent/core/logger"
)

// Listener is invoked synchronously after every session mutation.
type Listener func(ctx context.Context, s *Session) error

// Listeners is a publish/subscribe list of session listeners.
// A failing listener is logged and never affects the mutation or other listeners.
type Listeners struct {
	mu     sync.RWMutex
	fns    []Listener
	logger *slog.Logger
}

// NewListeners creates an empty registry that reports listener failures to log.
func NewListeners(log *slog.Logger) *Listeners {
	if log == nil {
		log = slog.Default()
	}
	return &Listeners{logger: log}
}

// Register appends a listener.
func (l *Listeners) Register(fn Listener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fns)
}

// Notify invokes every listener in registration order.
func (l *Listeners) Notify(ctx context.Context, s *Session) {
	l.mu.RLock()
	fns := make([]Listener, len(l.fns))
	copy(fns, l.fns)
	l.mu.RUnlock()

	for i, fn := range fns {
		if err := l.call(ctx, fn, s); err != nil {
			l.logger.ErrorContext(ctx, "session listener failed",
				logger.Component("session"),
				logger.Count("listener", i),
				logger.SessionID(s.ID.String()),
				logger.Error(err),
			)
		}
	}
}

func (l *Listeners) call(ctx context.Context, fn Listener, s *Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return fn(ctx, s)
}
