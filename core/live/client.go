package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/rpgconsent/core/logger"
	"github.com/dmitrymomot/rpgconsent/core/session"
)

// Client is one live UI connection. It implements session.Client, so code
// handling its events resolves the session through the connection rather than
// through a request of its own.
type Client struct {
	id     string
	req    *http.Request
	shared session.SharedStore
	conn   *websocket.Conn
	hub    *Hub
	send   chan Frame

	mu        sync.RWMutex
	sessionID uuid.UUID

	closeOnce sync.Once
	done      chan struct{}
}

var _ session.Client = (*Client)(nil)

func (c *Client) ID() string                  { return c.id }
func (c *Client) Request() *http.Request      { return c.req }
func (c *Client) Shared() session.SharedStore { return c.shared }

// SessionID returns the ID of the session the client was last resolved to.
func (c *Client) SessionID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Client) bind(id uuid.UUID) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

// Send queues a frame without blocking. A client that cannot keep up is
// disconnected and Send reports false.
func (c *Client) Send(f Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- f:
		c.hub.observer.FrameSent(f.Type)
		return true
	default:
		c.hub.logger.Warn("live client send buffer full, disconnecting",
			logger.Component("live"),
			logger.ClientID(c.id),
		)
		c.close()
		return false
	}
}

// Context returns ctx carrying the client, for use with session.Manager.Resolve and Storage.
func (c *Client) Context(ctx context.Context) context.Context {
	return session.WithClient(ctx, c)
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump reads events until the connection fails or the client is closed.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(c.hub.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	})

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.DebugContext(ctx, "live client read failed",
					logger.Component("live"),
					logger.ClientID(c.id),
					logger.Error(err),
				)
			}
			return
		}

		c.hub.dispatch(ctx, c, ev)
	}
}

// writePump serialises frames and keepalive pings onto the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
