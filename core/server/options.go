package server

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Option configures a Server.
type Option func(*Server)

// WithTLS serves HTTPS with config.
func WithTLS(config *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = config
	}
}

// WithLogger sets the logger for lifecycle events and net/http errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return positive(d, func(s *Server) { s.shutdown = d })
}

// WithReadTimeout bounds reading a whole request.
func WithReadTimeout(d time.Duration) Option {
	return positive(d, func(s *Server) { s.readTimeout = d })
}

// WithReadHeaderTimeout bounds reading request headers.
func WithReadHeaderTimeout(d time.Duration) Option {
	return positive(d, func(s *Server) { s.readHeaderTimeout = d })
}

// WithWriteTimeout bounds writing a response. Live client connections set
// their own deadlines after the upgrade.
func WithWriteTimeout(d time.Duration) Option {
	return positive(d, func(s *Server) { s.writeTimeout = d })
}

// WithIdleTimeout sets the keep-alive idle timeout.
func WithIdleTimeout(d time.Duration) Option {
	return positive(d, func(s *Server) { s.idleTimeout = d })
}

// WithMaxHeaderBytes limits the size of request headers.
func WithMaxHeaderBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxHeaderBytes = n
		}
	}
}

// positive applies set only for durations above zero, so zero config values keep defaults.
func positive(d time.Duration, set Option) Option {
	return func(s *Server) {
		if d > 0 {
			set(s)
		}
	}
}
