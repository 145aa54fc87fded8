package session

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/dmitrymomot/rpgconsent/core/cookie"
)

const (
	// DefaultCookieName is the name of the session cookie.
	DefaultCookieName = "rpg_session"
	// DefaultTTL is the cookie Max-Age and the idle period after which the reaper drops a session.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultRotationGrace is how long a rotated-out token keeps resolving.
	DefaultRotationGrace = 30 * time.Second
	// DefaultCleanupInterval is the period of the idle session reaper.
	DefaultCleanupInterval = 10 * time.Minute
)

// Config provides environment-based configuration for the session manager.
type Config struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"rpg_session"`
	TTL             time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	RotationGrace   time.Duration `env:"SESSION_ROTATION_GRACE" envDefault:"30s"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`
	// CookieDomain scopes the cookie to a parent domain. Empty means host-only.
	CookieDomain string `env:"SESSION_COOKIE_DOMAIN"`
	// BaseURL is the public deployment URL; an https scheme turns on the Secure cookie flag.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
}

// DefaultConfig returns a Config with the cookie contract defaults.
func DefaultConfig() Config {
	return Config{
		CookieName:      DefaultCookieName,
		TTL:             DefaultTTL,
		RotationGrace:   DefaultRotationGrace,
		CleanupInterval: DefaultCleanupInterval,
		BaseURL:         "http://localhost:8080",
	}
}

// secure reports whether the deployment is served over TLS.
func (c Config) secure() bool {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return false
	}
	return u.Scheme == "https"
}

// Option is a functional option for configuring the session manager.
type Option func(*Manager)

// WithTTL sets the cookie Max-Age and the idle timeout used by the reaper.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithRotationGrace sets how long the previous token keeps resolving after rotation.
// Zero retires the old token immediately.
func WithRotationGrace(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.grace = d
		}
	}
}

// WithCleanupInterval sets the period of RunCleanup.
func WithCleanupInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.cleanupInterval = d
		}
	}
}

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithSecure sets the Secure cookie flag.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithCookieManager replaces the cookie manager used for session cookie I/O.
func WithCookieManager(cm *cookie.Manager) Option {
	return func(m *Manager) {
		if cm != nil {
			m.cookies = cm
		}
	}
}

// WithLogger sets the logger used for listener failures and cleanup reports.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver attaches a telemetry sink.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewFromConfig creates a Manager from configuration.
// Additional options override config values.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	configOpts := []Option{
		WithCookieName(cfg.CookieName),
		WithTTL(cfg.TTL),
		WithRotationGrace(cfg.RotationGrace),
		WithCleanupInterval(cfg.CleanupInterval),
		WithSecure(cfg.secure()),
	}
	if cfg.CookieDomain != "" {
		configOpts = append(configOpts, WithCookieManager(cookie.New(cookie.WithDomain(cfg.CookieDomain))))
	}
	return NewManager(append(configOpts, opts...)...)
}
