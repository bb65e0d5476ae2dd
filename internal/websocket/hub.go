package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/isdelr/chatter-be/internal/presence"
	"github.com/rs/zerolog/log"
)

type pushRequest struct {
	userID string
	frame  []byte
}

// Hub maintains the set of active clients, keeps the presence registry in sync
// with them and delivers events. All client bookkeeping happens on the Run
// goroutine; other goroutines talk to it through channels.
type Hub struct {
	// Registered clients by connection id. Owned by Run.
	clients map[string]*Client

	presence *presence.Registry

	register   chan *Client
	unregister chan *Client
	push       chan pushRequest

	connections atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a new Hub around an injected presence registry.
func NewHub(registry *presence.Registry) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		presence:   registry,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan pushRequest),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's event loop. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.clients[client.ID] = client
			h.connections.Store(int64(len(h.clients)))
			h.presence.Set(client.UserID, client.ID)
			log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client connected")
			h.broadcastOnlineUsers()

		case client := <-h.unregister:
			if _, ok := h.clients[client.ID]; !ok {
				continue
			}
			delete(h.clients, client.ID)
			close(client.Send)
			h.connections.Store(int64(len(h.clients)))
			h.presence.Remove(client.UserID, client.ID)
			log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			h.broadcastOnlineUsers()

		case req := <-h.push:
			connID, ok := h.presence.Lookup(req.userID)
			if !ok {
				log.Debug().Str("user_id", req.userID).Msg("Recipient offline, dropping push")
				continue
			}
			if client, ok := h.clients[connID]; ok {
				h.deliver(client, req.frame)
			}
		}
	}
}

// Register adds a client. It reports false once the hub is shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister removes a client and takes its user offline unless a newer connection replaced it.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Push sends an event to the user's active connection. If the user is offline
// the event is dropped: there is no queue and no retry.
func (h *Hub) Push(userID, event string, payload interface{}) {
	frame, err := Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode push event")
		return
	}

	select {
	case h.push <- pushRequest{userID: userID, frame: frame}:
	case <-h.ctx.Done():
	}
}

// OnlineUserIDs returns the currently online users.
func (h *Hub) OnlineUserIDs() []string {
	return h.presence.OnlineUserIDs()
}

// ConnectionCount returns the number of open client connections.
func (h *Hub) ConnectionCount() int {
	return int(h.connections.Load())
}

// Shutdown stops the event loop, closes every connection and waits for Run to return.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

func (h *Hub) broadcastOnlineUsers() {
	frame, err := Encode(EventOnlineUsers, h.presence.OnlineUserIDs())
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode online users")
		return
	}
	for _, client := range h.clients {
		h.deliver(client, frame)
	}
}

// deliver queues a frame without blocking. A full buffer means the client is
// not keeping up; the frame is dropped.
func (h *Hub) deliver(client *Client, frame []byte) {
	select {
	case client.Send <- frame:
	default:
		log.Warn().Str("user_id", client.UserID).Msg("Client send buffer full, dropping event")
	}
}

func (h *Hub) closeAll() {
	for id, client := range h.clients {
		close(client.Send)
		client.conn.Close()
		h.presence.Remove(client.UserID, id)
		delete(h.clients, id)
	}
	h.connections.Store(0)
	log.Info().Msg("Hub stopped, all client connections closed")
}
