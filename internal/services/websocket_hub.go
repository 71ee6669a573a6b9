package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/metrics"
)

// WSMessage is the envelope pushed to websocket subscribers.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// WebSocketHub fans protocol events out to connected wallets so they
// can maintain a local copy of the tree without polling. Slow clients
// are dropped rather than allowed to backpressure the protocol path.
type WebSocketHub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	logger  *logrus.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewWebSocketHub creates an empty hub.
func NewWebSocketHub(logger *logrus.Logger) *WebSocketHub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebSocketHub{
		clients: make(map[*wsClient]struct{}),
		logger:  logger,
	}
}

// Register attaches a connection and starts its writer. The hub owns
// the connection from this point on.
func (h *WebSocketHub) Register(conn *websocket.Conn) {
	c := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSSubscribers.Set(float64(n))

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *WebSocketHub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSSubscribers.Set(float64(n))
	c.conn.Close()
}

func (h *WebSocketHub) writeLoop(c *wsClient) {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readLoop discards client messages; the stream is one-way. It exists
// to notice closed connections promptly.
func (h *WebSocketHub) readLoop(c *wsClient) {
	c.conn.SetReadLimit(1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

// Broadcast pushes one event to every subscriber. Implements
// events.Broadcaster.
func (h *WebSocketHub) Broadcast(eventType string, payload any) {
	msg, err := json.Marshal(WSMessage{
		Type:      eventType,
		Data:      payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal websocket message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Buffer full: the client is too slow, cut it loose.
			go h.remove(c)
		}
	}
}
