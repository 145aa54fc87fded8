package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/rpgconsent/core/health"
	"github.com/dmitrymomot/rpgconsent/core/live"
	"github.com/dmitrymomot/rpgconsent/core/metrics"
	"github.com/dmitrymomot/rpgconsent/core/session"
	"github.com/dmitrymomot/rpgconsent/integration/oauth"
	"github.com/dmitrymomot/rpgconsent/middleware"
)

type app struct {
	log         *slog.Logger
	mgr         *session.Manager
	metrics     *metrics.Metrics
	hub         *live.Hub
	auth        *oauth.Provider // nil when no OAuth provider is configured
	locales     []language.Tag
	metricsPath string
	ready       []func(context.Context) error
	trustProxy  bool
	security    middleware.SecurityHeadersConfig
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(),
		middleware.ClientIPWithConfig(middleware.ClientIPConfig{TrustProxy: a.trustProxy}),
		middleware.SecurityHeadersWithConfig(a.security),
		a.metrics.Middleware,
	)

	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness(a.log, a.ready...))
	r.Method(http.MethodGet, a.metricsPath, a.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.SessionWithConfig(a.mgr, middleware.SessionConfig{Logger: a.log}),
			// After the session middleware so request logs carry the session and user id.
			middleware.LoggingWithLogger(a.log),
			middleware.Locale(a.mgr.Storage(), a.locales...),
		)

		r.Handle("/live", a.hub)
		r.Route("/api/session", sessionAPI{mgr: a.mgr, log: a.log}.routes)

		if a.auth != nil {
			r.Get("/auth/login", a.auth.Login)
			r.Get("/auth/callback", a.auth.Callback)
			r.Post("/auth/logout", a.auth.Logout)
		}
	})

	return r
}
