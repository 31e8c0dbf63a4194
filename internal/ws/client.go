package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/reconciler"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 256
)

var (
	errSendBufferFull = errors.New("ws: send buffer full")
	errConnClosed     = errors.New("ws: connection closed")
)

// Client is one authenticated websocket session. It satisfies both the
// presence registry's handle and the reconciler's viewer, so chat delivery
// and deadline alerts share a single outbound path.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	ledger *reconciler.Ledger

	send chan []byte

	closeOnce sync.Once

	mu     sync.Mutex
	closed bool
	rooms  map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		ledger: reconciler.NewLedger(),
		send:   make(chan []byte, sendBuffer),
		rooms:  make(map[string]struct{}),
	}
}

func (c *Client) UserID() string             { return c.userID }
func (c *Client) Ledger() *reconciler.Ledger { return c.ledger }

// Send queues an event for the write pump. A full buffer means the peer has
// stopped draining; the connection is torn down rather than blocking a
// broadcaster.
func (c *Client) Send(event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		go c.Close()
		return errSendBufferFull
	}
}

func (c *Client) readPump() {
	defer c.Close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.hub.route(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) joinedRooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (c *Client) trackRoom(room string) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

// Close detaches the session from presence and every joined room, exactly
// once, then shuts the socket down.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.hub.detach(c)
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}
