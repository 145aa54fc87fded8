package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/rpgconsent/core/logger"
	"github.com/dmitrymomot/rpgconsent/core/session"
)

// SessionConfig configures the session middleware.
type SessionConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool
	// Logger for structured logging (default: discard)
	Logger *slog.Logger
	// RequireAuth rejects anonymous sessions with ErrorHandler(ErrUnauthorized)
	RequireAuth bool
	// RequireGuest rejects authenticated sessions with ErrorHandler(ErrForbidden)
	RequireGuest bool
	// ErrorHandler writes the response for auth requirement failures.
	// Default: plain 401 or 403.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

// Session creates middleware that resolves the caller's session from the session
// cookie and publishes it in the request context.
//
// The middleware:
//   - Reads the session cookie and calls Manager.Ensure (unknown or missing token creates a fresh session)
//   - Stores the session in the request context for session.Storage and Manager.Resolve
//   - Runs the handler
//   - Right before the response headers are committed: rotates the token if a
//     login or logout requested it, then writes the cookie if the session is new or dirty
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Session(mgr))
//
//	r.Post("/lang", func(w http.ResponseWriter, r *http.Request) {
//		_ = mgr.Storage().Set(r.Context(), "lang", r.FormValue("lang"))
//		w.WriteHeader(http.StatusNoContent)
//	})
//
// Mutations made after the headers were flushed (streaming responses) are written
// back by the next request of the same session. Handler panics are not recovered.
func Session(mgr *session.Manager) func(http.Handler) http.Handler {
	return SessionWithConfig(mgr, SessionConfig{})
}

// SessionWithConfig creates a session middleware with custom configuration.
//
//	// Protected API routes
//	r.With(middleware.SessionWithConfig(mgr, middleware.SessionConfig{
//		RequireAuth: true,
//	})).Get("/api/me", handleMe)
//
//	// Skip session for health checks and metrics
//	r.Use(middleware.SessionWithConfig(mgr, middleware.SessionConfig{
//		Skip: func(r *http.Request) bool {
//			return strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics"
//		},
//	}))
func SessionWithConfig(mgr *session.Manager, cfg SessionConfig) func(http.Handler) http.Handler {
	if mgr == nil {
		panic("session middleware: manager is required")
	}

	if cfg.RequireAuth && cfg.RequireGuest {
		panic("session middleware: RequireAuth and RequireGuest cannot both be true")
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrForbidden) {
				status = http.StatusForbidden
			}
			http.Error(w, http.StatusText(status), status)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			token := mgr.TokenFromRequest(r)
			sess, created := mgr.Ensure(token)

			ctx := session.WithSession(r.Context(), sess)
			r = r.WithContext(ctx)

			if created && token != "" {
				cfg.Logger.DebugContext(ctx, "unknown session token, started a new session",
					logger.Component("session"),
				)
			}

			rw := wrapResponseWriter(w, func() {
				if sess.NeedsRotation() {
					if err := mgr.RotateToken(sess); err != nil {
						cfg.Logger.ErrorContext(ctx, "session token rotation failed",
							logger.Component("session"),
							logger.Error(err),
						)
					}
				}
				if created || sess.IsDirty() {
					if err := mgr.WriteCookie(w, sess); err != nil {
						cfg.Logger.ErrorContext(ctx, "session cookie write failed",
							logger.Component("session"),
							logger.Error(err),
						)
					}
				}
			})

			if cfg.RequireAuth && !sess.IsAuthenticated() {
				cfg.ErrorHandler(rw, r, ErrUnauthorized)
				rw.commit()
				return
			}

			if cfg.RequireGuest && sess.IsAuthenticated() {
				cfg.ErrorHandler(rw, r, ErrForbidden)
				rw.commit()
				return
			}

			next.ServeHTTP(rw, r)

			// Nothing written: net/http sends the implicit 200 after we return.
			rw.commit()
		})
	}
}
