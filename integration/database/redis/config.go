package redis

import "time"

// Config holds Redis connection settings.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:""`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	// SharedPrefix namespaces live client shared store keys.
	SharedPrefix string `env:"REDIS_SHARED_PREFIX" envDefault:"rpgconsent:live"`
	// SharedTTL bounds how long a disconnected client's shared values survive.
	SharedTTL time.Duration `env:"REDIS_SHARED_TTL" envDefault:"168h"`
}

// Enabled reports whether a Redis URL is configured. Without one the
// application falls back to in-memory shared stores.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
