package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard origins are enforced at the CORS layer.
		return true
	},
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	ID string

	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	logger *logrus.Logger

	ConnectedAt time.Time `json:"connected_at"`

	// Metric subscriptions; empty means receive everything.
	mu      sync.RWMutex
	metrics map[string]bool
}

// HandleWebSocket upgrades the request and wires the client to the hub.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		conn:        conn,
		send:        make(chan []byte, 256),
		hub:         hub,
		logger:      hub.logger,
		ConnectedAt: time.Now(),
		metrics:     make(map[string]bool),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// HandleWebSocketGin is a Gin-compatible wrapper for HandleWebSocket.
func HandleWebSocketGin(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleWebSocket(hub, c.Writer, c.Request)
	}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Error("WebSocket connection error")
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued messages into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

// handleMessage processes incoming messages from the client.
func (c *Client) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.WithError(err).Error("Failed to unmarshal WebSocket message")
		return
	}

	switch msg.Type {
	case "subscribe_metric":
		if metric, ok := msg.Data["metric"].(string); ok {
			c.SubscribeToMetric(metric)
		}
	case "unsubscribe_metric":
		if metric, ok := msg.Data["metric"].(string); ok {
			c.UnsubscribeFromMetric(metric)
		}
	case "ping":
		c.send <- Message{Type: MessageTypePong, Data: map[string]interface{}{}}.ToJSON()
	default:
		c.logger.WithField("message_type", msg.Type).Warn("Unknown WebSocket message type")
	}
}

// SubscribeToMetric subscribes the client to one metric's updates.
func (c *Client) SubscribeToMetric(metric string) {
	c.mu.Lock()
	c.metrics[metric] = true
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"client_id": c.ID,
		"metric":    metric,
	}).Info("Client subscribed to metric")
}

// UnsubscribeFromMetric removes one metric subscription.
func (c *Client) UnsubscribeFromMetric(metric string) {
	c.mu.Lock()
	delete(c.metrics, metric)
	c.mu.Unlock()
}

// WantsMetric reports whether the client should receive updates for the
// metric. A client with no subscriptions receives everything.
func (c *Client) WantsMetric(metric string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.metrics) == 0 {
		return true
	}
	return c.metrics[metric]
}
