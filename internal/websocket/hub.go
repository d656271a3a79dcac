package websocket

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	logger *logrus.Logger
	mu     sync.RWMutex
	stats  *HubStats
}

// HubStats contains hub statistics.
type HubStats struct {
	ConnectedClients int       `json:"connected_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessagesSent     int64     `json:"messages_sent"`
	LastActivity     time.Time `json:"last_activity"`
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		stats: &HubStats{
			LastActivity: time.Now(),
		},
	}
}

// Run handles client registration, unregistration and broadcasting. Call
// it in its own goroutine.
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ticker.C:
			h.sendHeartbeat()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.stats.TotalConnections++
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()

	h.logger.WithFields(logrus.Fields{
		"client_id":         client.ID,
		"connected_clients": len(h.clients),
	}).Info("WebSocket client connected")

	welcome := Message{
		Type: MessageTypeConnection,
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.ID,
		},
	}
	select {
	case client.send <- welcome.ToJSON():
	default:
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		h.dropClientLocked(client)
	}
}

// dropClientLocked removes a client and closes its send channel. Callers
// must hold h.mu for writing; membership in h.clients guarantees the
// channel has not been closed yet.
func (h *Hub) dropClientLocked(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()

	h.logger.WithFields(logrus.Fields{
		"client_id":         client.ID,
		"connected_clients": len(h.clients),
	}).Info("WebSocket client disconnected")
}

func (h *Hub) broadcastMessage(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.MessagesSent++
	h.stats.LastActivity = time.Now()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Slow consumer. Drop it inline; queueing an unregister here
			// would block the hub loop on its own channel.
			h.dropClientLocked(client)
		}
	}
}

func (h *Hub) sendHeartbeat() {
	h.BroadcastToAll(Message{
		Type: MessageTypeHeartbeat,
		Data: map[string]interface{}{
			"clients": h.GetClientCount(),
		},
	})
}

// BroadcastToAll queues a message for every connected client.
func (h *Hub) BroadcastToAll(message Message) {
	data := message.ToJSON()
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast channel is full, message dropped")
	}
}

// BroadcastToMetric delivers a message to clients subscribed to the
// metric. Clients with no subscriptions receive everything. Runs on the
// caller's goroutine; sends are non-blocking and slow clients are
// dropped, so holding the write lock here is safe.
func (h *Hub) BroadcastToMetric(metric string, message Message) {
	data := message.ToJSON()

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.WantsMetric(metric) {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.dropClientLocked(client)
		}
	}
	h.stats.MessagesSent++
	h.stats.LastActivity = time.Now()
}

// GetStats returns a copy of the current hub statistics.
func (h *Hub) GetStats() *HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	statsCopy := *h.stats
	statsCopy.ConnectedClients = len(h.clients)
	return &statsCopy
}

// GetClientCount returns the current number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
