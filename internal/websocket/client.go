package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/real-rm/livechat/internal/constants"
	"github.com/real-rm/livechat/internal/metrics"
	"github.com/real-rm/livechat/internal/store"
)

// ClientKind distinguishes the two connection surfaces
type ClientKind string

const (
	KindVisitor  ClientKind = "visitor"
	KindOperator ClientKind = "operator"
)

// Client is one live WebSocket connection. Visitor clients gain a session
// after their join event resolves; operator clients carry their validated
// identity from the moment of upgrade.
type Client struct {
	conn *websocket.Conn

	id   string
	kind ClientKind

	// Operator identity from JWT, empty for visitors
	OperatorID   string
	OperatorName string
	Roles        []string

	// Visitor connection key for the per-IP limiter
	networkOrigin string

	// send is a buffered channel for outbound frames
	send chan []byte

	// closing is set before the send channel closes to prevent
	// send-on-closed-channel panics
	closing atomic.Bool

	mu sync.RWMutex

	// session is resolved by the join event, nil until then
	session *store.VisitorSession
}

func newClient(conn *websocket.Conn, id string, kind ClientKind) *Client {
	return &Client{
		conn: conn,
		id:   id,
		kind: kind,
		send: make(chan []byte, constants.SendBufferSize),
	}
}

// ID uniquely identifies the connection.
func (c *Client) ID() string {
	return c.id
}

// SafeSend enqueues a frame without blocking.
// Returns false if the connection is closing or the buffer is full.
func (c *Client) SafeSend(data []byte) bool {
	if c.closing.Load() {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Session returns the visitor session resolved by join, nil before that.
func (c *Client) Session() *store.VisitorSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession associates the resolved visitor session with the connection.
func (c *Client) SetSession(sess *store.VisitorSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
}

// SetClosing marks the connection as closing. After this call, SafeSend
// returns false.
func (c *Client) SetClosing() {
	c.closing.Store(true)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// writePump writes frames from the send channel and keeps the connection
// alive with periodic pings. One writePump per connection; gorilla permits
// only one concurrent writer.
func (c *Client) writePump() {
	ticker := time.NewTicker(constants.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WriteWait))

			// No else needed: channel closed handling (sends close and returns)
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// No else needed: error handling with return (exits function)
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			// No else needed: error handling with return (exits function)
			c.conn.SetWriteDeadline(time.Now().Add(constants.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trackOpen records the connection in the active-connections gauge.
func (c *Client) trackOpen() {
	metrics.ActiveConnections.WithLabelValues(string(c.kind)).Inc()
}

// trackClosed removes the connection from the active-connections gauge.
func (c *Client) trackClosed() {
	metrics.ActiveConnections.WithLabelValues(string(c.kind)).Dec()
}
