package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/services"
)

// WebSocketHandler upgrades clients onto the protocol event stream.
type WebSocketHandler struct {
	hub    *services.WebSocketHub
	logger *logrus.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from arbitrary origins; events are public data.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewWebSocketHandler creates the websocket handler.
func NewWebSocketHandler(hub *services.WebSocketHub, logger *logrus.Logger) *WebSocketHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebSocketHandler{hub: hub, logger: logger}
}

// Serve upgrades the connection and registers it with the hub. A
// bearer token (query param or Authorization header) is accepted but
// not required; the stream carries only public events.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	if principal := h.principalFromToken(c.Request); principal != "" {
		h.logger.WithField("principal", principal).Debug("Authenticated websocket subscriber")
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithField("error", err.Error()).Warn("Websocket upgrade failed")
		return
	}
	h.hub.Register(conn)
}

func (h *WebSocketHandler) principalFromToken(r *http.Request) string {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		return ""
	}
	claims, err := ValidateJWTToken(token)
	if err != nil {
		h.logger.WithField("error", err.Error()).Debug("Websocket token rejected")
		return ""
	}
	return claims.Address
}
