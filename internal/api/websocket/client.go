package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 256
)

// Client is one websocket connection.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	Send chan Message

	filterMu sync.RWMutex
	games    map[string]bool
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		Send: make(chan Message, sendBufferSize),
	}
}

// ReadPump reads subscription messages until the connection closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] client %s unexpected close: %v", c.ID, err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg ClientMessage) {
	switch msg.Type {
	case "subscribe":
		c.SetGames(msg.GameIDs)
		c.TrySend(Message{Type: "subscribed", Payload: msg.GameIDs, Timestamp: time.Now().UTC()})
	case "unsubscribe":
		c.SetGames(nil)
	case "ping":
		c.TrySend(Message{Type: "pong", Timestamp: time.Now().UTC()})
	default:
		c.TrySend(Message{Type: "error", Payload: "unknown message type " + msg.Type, Timestamp: time.Now().UTC()})
	}
}

// WritePump pushes hub messages to the connection and keeps it alive.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("[ws] client %s write error: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking. It reports false when the
// client's buffer is full.
func (c *Client) TrySend(msg Message) (sent bool) {
	defer func() {
		// Send may already be closed by the hub.
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// SetGames limits the client to the given games. An empty list means all.
func (c *Client) SetGames(ids []string) {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	if len(ids) == 0 {
		c.games = nil
		return
	}
	c.games = make(map[string]bool, len(ids))
	for _, id := range ids {
		c.games[id] = true
	}
}

// Wants reports whether the client subscribed to the game.
func (c *Client) Wants(gameID string) bool {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.games == nil || gameID == "" || c.games[gameID]
}
