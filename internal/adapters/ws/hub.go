// Package ws pushes standings and commentary updates to connected render
// clients over websockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/devderby/devderby/internal/domain/leaderboard"
	"github.com/devderby/devderby/internal/domain/model"
	"github.com/devderby/devderby/pkg/logger"
	"github.com/devderby/devderby/pkg/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope pushed to clients.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Message types pushed by the hub.
const (
	MessageTypeStandings  = "standings"
	MessageTypeCommentary = "commentary"
)

// Hub tracks connected clients and fans messages out to all of them.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	logger     logger.Logger
}

// NewHub creates a hub. Run must be called before serving connections.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("ws"),
	}
}

// Run processes register, unregister and broadcast events until Stop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.done:
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			count := len(h.clients)
			h.mu.Unlock()
			metrics.UpdateWSConnections(count)
			h.logger.Debug(ctx, "client connected",
				logger.String("client_id", client.id), logger.Int("clients", count))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			metrics.UpdateWSConnections(count)
			h.logger.Debug(ctx, "client disconnected",
				logger.String("client_id", client.id), logger.Int("clients", count))
		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer; dropped rather than blocking the hub.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	h.mu.Unlock()
	metrics.UpdateWSConnections(0)
}

// HandleWS upgrades an HTTP request and attaches the client to the hub.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastStandings pushes a standings snapshot to every client.
func (h *Hub) BroadcastStandings(s leaderboard.Standings) {
	h.push(MessageTypeStandings, s)
}

// BroadcastCommentary pushes one commentary entry to every client.
func (h *Hub) BroadcastCommentary(c model.GameCommentary) {
	h.push(MessageTypeCommentary, c)
}

func (h *Hub) push(msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Warn(context.Background(), "broadcast marshal failed", logger.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Broadcast backlog full; snapshot dropped, the next one catches up.
	}
}
