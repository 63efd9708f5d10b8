package websocket

import (
	"context"
	"log"
	"sync"
)

// Hub fans messages out to every connected client.
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	dropped int64
	logger  *log.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(log.Writer(), "[ws] ", log.LstdFlags)
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 1000),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.clientsMu.Unlock()
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Printf("client %s connected (%d total)", client.ID, n)

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Printf("client %s disconnected (%d total)", client.ID, n)

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) fanOut(msg Message) {
	var slow []*Client

	h.clientsMu.RLock()
	for client := range h.clients {
		if !client.Wants(msg.GameID) {
			continue
		}
		if !client.TrySend(msg) {
			slow = append(slow, client)
		}
	}
	h.clientsMu.RUnlock()

	// Clients whose buffer is full are disconnected.
	if len(slow) > 0 {
		h.clientsMu.Lock()
		for _, client := range slow {
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.dropped++
				h.logger.Printf("⚠️  dropping slow client %s", client.ID)
			}
		}
		h.clientsMu.Unlock()
	}
}

// Broadcast queues a message for every interested client. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.logger.Printf("⚠️  broadcast queue full, dropping %s for %s", msg.Type, msg.GameID)
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many clients were disconnected for being slow.
func (h *Hub) Dropped() int64 {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return h.dropped
}
