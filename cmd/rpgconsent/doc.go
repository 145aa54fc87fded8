// Command rpgconsent serves the session layer of the consent sheet app: the
// cookie-token session middleware, the live UI hub, OAuth login and a small
// JSON API over the active session.
//
// Routes:
//
//	GET    /health/live         liveness
//	GET    /health/ready        readiness (pings Redis when configured)
//	GET    /metrics             Prometheus metrics
//	GET    /live                WebSocket live UI channel
//	GET    /api/session         active session snapshot and resolved locale
//	PUT    /api/session/{key}   set a session value, body {"value": ...}
//	DELETE /api/session/{key}   remove a session value
//	GET    /auth/login          start OAuth login (when OAUTH_* is configured)
//	GET    /auth/callback       OAuth redirect target
//	POST   /auth/logout         end the user session
//
// Configuration is read from the environment and an optional .env file.
package main
