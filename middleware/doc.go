// Package middleware provides net/http middleware for the session-aware request
// pipeline: request IDs, client addresses, security headers, session
// resolution with cookie write-back, locale negotiation and request logging.
//
// All middleware follows the same pattern:
//   - A default constructor for the common case
//   - A WithConfig constructor taking a configuration struct
//   - A Skip func(*http.Request) bool to bypass specific requests
//   - Context helpers for retrieving stored values
//
// # Recommended Order
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID())
//	r.Use(middleware.ClientIP())
//	r.Use(middleware.SecurityHeaders())
//	r.Use(middleware.Session(mgr))
//	r.Use(middleware.LoggingWithLogger(log))
//	r.Use(middleware.Locale(mgr.Storage(), language.English, language.German))
//
// Logging after Session lets every request record carry the stable session ID
// and the bound user ID. Locale after Session lets a language saved in the
// session win over Accept-Language.
//
// # Session Write-Back
//
// The session middleware wraps the ResponseWriter and performs token rotation
// and the Set-Cookie write exactly once, right before the status line is sent
// (first WriteHeader, Write or Flush) or after the handler returns when it wrote
// nothing. A hijacked connection (WebSocket upgrade) skips write-back; pending
// flags are honoured by the next request of the same session.
//
// # Auth Requirements
//
//	api := r.With(middleware.SessionWithConfig(mgr, middleware.SessionConfig{
//		RequireAuth: true,
//	}))
//
// Anonymous sessions receive ErrorHandler(ErrUnauthorized), by default a plain 401.
package middleware
