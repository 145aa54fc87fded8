// Package metrics exports Prometheus metrics for the session subsystem, login
// attempts, live UI clients and HTTP traffic.
//
// Metrics implements session.Observer, so wiring it into the session manager is
// a single option:
//
//	m := metrics.New(cfg.Metrics)
//	mgr := session.NewFromConfig(cfg.Session, session.WithObserver(m))
//	m.TrackSessions(mgr)
//
//	r.Use(m.Middleware)
//	r.Handle(cfg.Metrics.Path, m.Handler())
//
// Exported series (namespace "rpgconsent" by default):
//
//	rpgconsent_session_created_total
//	rpgconsent_session_rotations_total
//	rpgconsent_session_active
//	rpgconsent_auth_login_attempts_total{provider,result}
//	rpgconsent_live_clients
//	rpgconsent_live_frames_total{type}
//	rpgconsent_http_requests_total{method,route,status}
//	rpgconsent_http_request_duration_seconds{method,route,status}
//	rpgconsent_http_requests_inflight
package metrics
