package main

import (
	"github.com/dmitrymomot/rpgconsent/core/metrics"
	"github.com/dmitrymomot/rpgconsent/core/server"
	"github.com/dmitrymomot/rpgconsent/core/session"
	"github.com/dmitrymomot/rpgconsent/integration/database/redis"
	"github.com/dmitrymomot/rpgconsent/integration/oauth"
)

type Config struct {
	AppName string `env:"APP_NAME" envDefault:"rpgconsent"`
	// AppEnv selects the log format: development, staging or production.
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	// Locales are the UI languages; the first one is the fallback.
	Locales []string `env:"APP_LOCALES" envDefault:"en,de,fr" envSeparator:","`
	// LiveAllowedOrigins restricts WebSocket upgrades. Empty means same origin only.
	LiveAllowedOrigins []string `env:"LIVE_ALLOWED_ORIGINS" envSeparator:","`
	// TrustProxy reads the client address from proxy headers.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	Session session.Config
	Server  server.Config
	Metrics metrics.Config
	Redis   redis.Config
	OAuth   oauth.Config
}
