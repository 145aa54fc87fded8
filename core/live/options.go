package live

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultSendBuffer is the number of frames queued per client before it is dropped.
	DefaultSendBuffer = 16
	// DefaultMaxMessageSize limits inbound event size in bytes.
	DefaultMaxMessageSize = 4096
	// DefaultWriteWait is the deadline for a single frame write.
	DefaultWriteWait = 10 * time.Second
	// DefaultPongWait is how long a client may stay silent before it is considered gone.
	DefaultPongWait = 60 * time.Second

	// ClientIDParam is the query parameter a reconnecting browser uses to resume its client id.
	ClientIDParam = "client"
)

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithObserver attaches connection telemetry.
func WithObserver(o Observer) Option {
	return func(h *Hub) {
		if o != nil {
			h.observer = o
		}
	}
}

// WithSharedStore sets the factory for per-client shared stores.
func WithSharedStore(f SharedFactory) Option {
	return func(h *Hub) {
		if f != nil {
			h.shared = f
		}
	}
}

// WithEventHandler replaces SessionEvents.
func WithEventHandler(fn EventHandler) Option {
	return func(h *Hub) {
		h.handler = fn
	}
}

// WithOriginCheck sets the upgrade origin check. The gorilla default rejects cross-origin requests.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithSendBuffer sets the per-client outbound queue length.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithPongWait sets the keepalive timeout. Pings are sent at 90% of it.
func WithPongWait(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pongWait = d
		}
	}
}
