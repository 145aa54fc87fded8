package session

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/rpgconsent/core/logger"
)

type (
	sessionKey struct{}
	clientKey  struct{}
)

// WithSession returns a copy of ctx that carries the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx by the session middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// WithClient returns a copy of ctx that carries a long-lived client.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the live client stored in ctx.
func ClientFromContext(ctx context.Context) (Client, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(clientKey{}).(Client)
	return c, ok && c != nil
}

// LogExtractor adds the stable session ID and the bound identity to log records
// written with a context that carries a session. Tokens are never logged.
func LogExtractor(ctx context.Context) (slog.Attr, bool) {
	s, ok := FromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	attrs := []slog.Attr{slog.String("id", s.ID.String())}
	if id := s.UserID(); id != "" {
		attrs = append(attrs, slog.String("user_id", id))
	}
	return logger.Group("session", attrs...), true
}
