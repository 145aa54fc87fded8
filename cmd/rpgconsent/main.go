package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/rpgconsent/core/config"
	"github.com/dmitrymomot/rpgconsent/core/live"
	"github.com/dmitrymomot/rpgconsent/core/logger"
	"github.com/dmitrymomot/rpgconsent/core/metrics"
	"github.com/dmitrymomot/rpgconsent/core/server"
	"github.com/dmitrymomot/rpgconsent/core/session"
	"github.com/dmitrymomot/rpgconsent/integration/database/redis"
	"github.com/dmitrymomot/rpgconsent/integration/oauth"
	"github.com/dmitrymomot/rpgconsent/middleware"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg) // panic on error

	log := newLogger(cfg)

	m := metrics.New(cfg.Metrics)
	mgr := session.NewFromConfig(cfg.Session,
		session.WithLogger(log),
		session.WithObserver(m),
	)
	m.TrackSessions(mgr)

	a := &app{
		log:         log,
		mgr:         mgr,
		metrics:     m,
		locales:     parseLocales(cfg.Locales),
		metricsPath: cfg.Metrics.Path,
		trustProxy:  cfg.TrustProxy,
		security:    middleware.BalancedSecurity,
	}
	a.security.IsDevelopment = cfg.AppEnv == "development"

	hubOpts := []live.Option{
		live.WithLogger(log),
		live.WithObserver(m),
		live.WithOriginCheck(originCheck(cfg.LiveAllowedOrigins)),
	}

	// Redis is optional; without it live clients keep their shared store in memory.
	if cfg.Redis.Enabled() {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Error("Failed to connect to redis", logger.Component("redis"), logger.Error(err))
			os.Exit(1)
		}
		defer rdb.Close()

		shared := redis.NewSharedStore(rdb, cfg.Redis.SharedPrefix, cfg.Redis.SharedTTL)
		hubOpts = append(hubOpts, live.WithSharedStore(shared.For))
		a.ready = append(a.ready, redis.Healthcheck(rdb))
	}

	a.hub = live.NewHub(mgr, hubOpts...)

	if cfg.OAuth.Enabled() {
		p, err := oauth.New(mgr, cfg.OAuth, oauth.WithLogger(log))
		if err != nil {
			log.Error("Failed to configure oauth provider", logger.Component("oauth"), logger.Error(err))
			os.Exit(1)
		}
		a.auth = p
	} else {
		log.Warn("OAuth provider is not configured, login routes are disabled", logger.Component("oauth"))
	}

	s, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	if err != nil {
		log.Error("Failed to create server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(s.Run(ctx, a.routes()))
	eg.Go(mgr.RunCleanup(ctx))
	eg.Go(a.hub.Run(ctx))

	if err := eg.Wait(); err != nil {
		log.Error("Failed to run server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped")
}

func newLogger(cfg Config) *slog.Logger {
	extractors := logger.WithContextExtractors(session.LogExtractor, requestIDExtractor)

	switch cfg.AppEnv {
	case "production":
		return logger.New(logger.WithProduction(cfg.AppName), extractors)
	case "staging":
		return logger.New(logger.WithStaging(cfg.AppName), extractors)
	default:
		return logger.New(logger.WithDevelopment(cfg.AppName), extractors)
	}
}

func requestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id, ok := middleware.GetRequestID(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.RequestID(id), true
}

func parseLocales(values []string) []language.Tag {
	tags := make([]language.Tag, 0, len(values))
	for _, v := range values {
		if tag, err := language.Parse(v); err == nil {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, language.English)
	}
	return tags
}

// originCheck allows same-origin upgrades plus the listed origins.
func originCheck(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	}
}
