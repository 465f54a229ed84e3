package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"carviz/internal/infrastructure"
	"carviz/pkg/contracts/events"
)

// Hub tracks the open sessions. Sessions never share filter state; the hub
// only counts them and delivers server notifications such as a dataset
// reload.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger  *slog.Logger
	metrics *infrastructure.DashboardMetrics

	totalConnections int64

	quit     chan struct{}
	stopOnce sync.Once
	running  bool
}

// NewHub creates a Hub. metrics may be nil.
func NewHub(metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in the background. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("client buffer full, notification dropped",
						slog.String("client_id", client.id))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop closes every session and ends the hub loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)

		h.mu.RLock()
		for client := range h.clients {
			client.conn.Close()
		}
		h.mu.RUnlock()
	})
}

// Register adds client. It reports false when the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
		h.remove(client)
	}
}

// Broadcast delivers msg to every session. Sessions whose buffer is full miss it.
func (h *Hub) Broadcast(msg events.WebSocketMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode broadcast", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.quit:
	}
}

// NotifyCatalogReloaded tells every session the dataset changed on disk.
func (h *Hub) NotifyCatalogReloaded(rows int, loadedAt time.Time) {
	if h.ClientCount() == 0 {
		return
	}
	h.Broadcast(events.NewMessage("", events.MessageTypeCatalog, "", events.CatalogData{
		Rows:     rows,
		LoadedAt: loadedAt,
	}))
}

// ClientCount returns the number of open sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConnections returns the number of sessions ever registered.
func (h *Hub) TotalConnections() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConnections
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.totalConnections++
	count := len(h.clients)
	h.mu.Unlock()

	ctx := infrastructure.WithTraceID(context.Background(), client.traceID)
	if h.metrics != nil {
		h.metrics.WebSocketSessions.Add(ctx, 1)
	}
	h.logger.InfoContext(ctx, "Client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := infrastructure.WithTraceID(context.Background(), client.traceID)
	if h.metrics != nil {
		h.metrics.WebSocketSessions.Add(ctx, -1)
	}
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}
