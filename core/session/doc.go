// Package session provides in-memory, cookie-token based session management with
// context-scoped resolution, token rotation on privilege changes, and change
// notification for live UI fragments.
//
// # Core Components
//
//   - Session: server-held state of one browser or live client (identity, data bag, flags)
//   - Manager: owns the token to session map, cookie I/O, rotation and the idle reaper
//   - Storage: key/value façade over whatever session is active in a context
//   - Listeners: synchronous subscribers invoked after every session mutation
//   - Client/SharedStore: long-lived UI connections and their secondary key/value store
//
// # Basic Usage
//
//	mgr := session.NewFromConfig(cfg.Session, session.WithLogger(log))
//
//	r := chi.NewRouter()
//	r.Use(middleware.Session(mgr))
//
//	r.Put("/lang/{lang}", func(w http.ResponseWriter, r *http.Request) {
//		_ = mgr.Storage().Set(r.Context(), "lang", chi.URLParam(r, "lang"))
//	})
//
// # Authentication
//
// BeginUserSession binds an external account identifier and requests rotation;
// EndUserSession clears identity and data and requests rotation. The middleware
// performs the rotation and rewrites the cookie before the response is flushed.
//
//	if err := mgr.BeginUserSession(r.Context(), accountID); err != nil {
//		return err
//	}
//
// # Token Rotation
//
// Rotation keeps the old token as an alias of the same session for the configured
// grace window (SESSION_ROTATION_GRACE, 30s by default), so a request racing the
// response that carries the new cookie still finds its session. After the grace
// window the old token is retired and treated as unknown.
//
// # Resolution Outside Requests
//
// Code handling events on a live connection has no request of its own. Put the
// Client into the context with WithClient and Manager.Resolve falls back to the
// client's original request, its shared store and finally its cookie.
//
// # Cookie Contract
//
//	Set-Cookie: rpg_session=<token>; Path=/; Max-Age=604800; HttpOnly; SameSite=Lax
//
// Secure is added when BASE_URL uses https. Max-Age is fixed from write time.
//
// # Thread Safety
//
// Handlers run concurrently, so the token map is guarded by a RWMutex and each
// Session by its own mutex. Listeners run after the session lock is released and
// may read the session freely.
//
// # Memory
//
// Sessions live in process memory only. RunCleanup drops sessions that have not
// been touched for longer than the TTL.
package session
