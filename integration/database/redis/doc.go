// Package redis provides Redis client initialization, health checking and a
// Redis-backed shared store for live UI clients.
//
//   - Connect: creates a client from REDIS_URL with retries and a verifying ping
//   - Healthcheck: readiness check for health.Readiness
//   - SharedStore: session.SharedStore per live client, kept in one hash per client
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL" envDefault:""`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		SharedPrefix   string        `env:"REDIS_SHARED_PREFIX" envDefault:"rpgconsent:live"`
//		SharedTTL      time.Duration `env:"REDIS_SHARED_TTL" envDefault:"168h"`
//	}
//
// Redis is optional. With an empty REDIS_URL the application keeps shared
// stores in memory. Sessions themselves always live in process memory.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	shared := redis.NewSharedStore(client, cfg.Redis.SharedPrefix, cfg.Redis.SharedTTL)
//	hub := live.NewHub(mgr, live.WithSharedStore(shared.For))
//
//	r.Get("/health/ready", health.Readiness(log, redis.Healthcheck(client)))
//
// # Retry Logic
//
// Connect pings up to RetryAttempts times, doubling RetryInterval after each
// failure, and aborts when ConnectTimeout or the caller's context expires.
//
// # Errors
//
//   - ErrEmptyConnectionURL: no URL configured
//   - ErrFailedToParseRedisConnString: malformed URL
//   - ErrRedisNotReady: Redis did not answer within the retry budget
//   - ErrHealthcheckFailed: readiness ping failed
//   - ErrSharedStore: a shared store command failed
package redis
