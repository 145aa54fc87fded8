package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/rpgconsent/core/logger"
	"github.com/dmitrymomot/rpgconsent/core/session"
)

// Observer receives live connection telemetry.
type Observer interface {
	ClientConnected()
	ClientDisconnected()
	FrameSent(frameType string)
}

type nopObserver struct{}

func (nopObserver) ClientConnected()    {}
func (nopObserver) ClientDisconnected() {}
func (nopObserver) FrameSent(string)    {}

// SharedFactory returns the shared store for a newly connected client.
type SharedFactory func(clientID string) session.SharedStore

// EventHandler handles one inbound event. ctx carries the client, so
// session.Manager.Resolve and Storage operate on the client's session.
type EventHandler func(ctx context.Context, c *Client, ev Event) error

// Hub tracks live UI connections and pushes session changes to them.
type Hub struct {
	mgr      *session.Manager
	upgrader websocket.Upgrader
	shared   SharedFactory
	handler  EventHandler
	observer Observer
	logger   *slog.Logger

	sendBuffer     int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration

	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

// NewHub creates a hub bound to mgr and registers its session listener.
func NewHub(mgr *session.Manager, opts ...Option) *Hub {
	h := &Hub{
		mgr: mgr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		shared:         func(string) session.SharedStore { return session.NewMemoryShared() },
		observer:       nopObserver{},
		logger:         logger.Discard(),
		sendBuffer:     DefaultSendBuffer,
		maxMessageSize: DefaultMaxMessageSize,
		writeWait:      DefaultWriteWait,
		pongWait:       DefaultPongWait,
		clients:        make(map[string]*Client),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.handler == nil {
		h.handler = SessionEvents(mgr)
	}
	h.pingPeriod = h.pongWait * 9 / 10

	mgr.Register(h.onSessionChange)

	return h
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
// Mount it behind the session middleware so the upgrade request carries the session.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "live upgrade failed",
			logger.Component("live"),
			logger.Error(err),
		)
		return
	}

	id := h.clientID(r)
	shared := h.shared(id)
	c := &Client{
		id:     id,
		req:    h.clientRequest(r, shared),
		shared: shared,
		conn:   conn,
		hub:    h,
		send:   make(chan Frame, h.sendBuffer),
		done:   make(chan struct{}),
	}

	if !h.add(c) {
		_ = conn.Close()
		return
	}
	defer h.remove(c)

	go c.writePump()

	// The request context is not reused, so resolution goes through the client.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = c.Context(ctx)

	if s, err := h.mgr.Resolve(ctx); err == nil {
		h.mgr.Remember(ctx, c, s)
		c.bind(s.ID)
		c.Send(sessionChanged(sessionChange(s), id))
	}

	h.logger.InfoContext(ctx, "live client connected",
		logger.Component("live"),
		logger.ClientID(id),
		logger.SessionID(c.SessionID().String()),
	)

	c.readPump(ctx)
	c.close()
}

// clientID reuses the id passed in the ClientIDParam query parameter when it is a
// valid UUID not held by a connected client, so a reconnecting browser keeps its
// shared store. Otherwise a fresh id is issued.
func (h *Hub) clientID(r *http.Request) string {
	if v := r.URL.Query().Get(ClientIDParam); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			h.mu.RLock()
			_, taken := h.clients[id.String()]
			h.mu.RUnlock()
			if !taken {
				return id.String()
			}
		}
	}
	return uuid.NewString()
}

// clientRequest detaches the session that the middleware created for the upgrade
// request when the client comes back with a cached token. Resolution then goes
// through the shared store, which restores the earlier session or its identity.
// A request whose cookie still resolves keeps its session.
func (h *Hub) clientRequest(r *http.Request, shared session.SharedStore) *http.Request {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return r
	}
	if cur, ok := h.mgr.Lookup(h.mgr.TokenFromRequest(r)); ok && cur == s {
		return r
	}

	cached, ok, err := shared.Get(r.Context(), session.SharedTokenKey)
	if err != nil || !ok || cached == "" {
		return r
	}

	return r.WithContext(session.WithSession(r.Context(), nil))
}

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	h.observer.ClientConnected()
	return true
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		h.observer.ClientDisconnected()
	}
	h.mu.Unlock()

	h.logger.Info("live client disconnected",
		logger.Component("live"),
		logger.ClientID(c.id),
	)
}

// dispatch runs the event handler and rebinds the client to whatever session
// the event resolved to.
func (h *Hub) dispatch(ctx context.Context, c *Client, ev Event) {
	if err := h.handler(ctx, c, ev); err != nil {
		h.logger.WarnContext(ctx, "live event failed",
			logger.Component("live"),
			logger.ClientID(c.id),
			logger.Event(ev.Type),
			logger.Error(err),
		)
		c.Send(errorFrame(err))
	}

	if s, err := h.mgr.Resolve(ctx); err == nil && s.ID != c.SessionID() {
		c.bind(s.ID)
		c.Send(sessionChanged(sessionChange(s), c.id))
	}
}

// onSessionChange refreshes the shared store of every client bound to s and
// pushes a session.changed frame to it. A logout therefore also drops the
// cached identity, so a reconnect cannot bring it back.
func (h *Hub) onSessionChange(ctx context.Context, s *session.Session) error {
	clients := h.bound(s.ID)
	if len(clients) == 0 {
		return nil
	}
	change := sessionChange(s)
	for _, c := range clients {
		h.mgr.Remember(ctx, c, s)
		c.Send(sessionChanged(change, c.id))
	}
	return nil
}

func (h *Hub) bound(id uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Client
	for _, c := range h.clients {
		if c.SessionID() == id {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Run returns a function that closes the hub when ctx is canceled.
// It is compatible with errgroup.Group.Go.
func (h *Hub) Run(ctx context.Context) func() error {
	return func() error {
		<-ctx.Done()
		h.Close()
		return nil
	}
}
