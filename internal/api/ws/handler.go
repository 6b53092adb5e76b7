package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SuperApp/backend/internal/registry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the host UI runs on its own origin
	},
}

// ClientMessage is a message sent by the host UI.
type ClientMessage struct {
	Type string `json:"type"`
}

// ServerMessage is a message sent to the host UI.
type ServerMessage struct {
	Type    string          `json:"type"`
	Event   *registry.Event `json:"event,omitempty"`
	State   *registry.State `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Handler manages WebSocket connections
type Handler struct {
	registry *registry.Manager
	log      *zap.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(reg *registry.Manager, log *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		registry: reg,
		log:      log,
		metrics:  metrics,
	}
}

// HandleConnection upgrades the request and streams registry changes until
// the client goes away or the request context ends.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.StreamConnections.Inc()
		defer h.metrics.StreamConnections.Dec()
	}

	events, cancel := h.registry.Subscribe()
	defer cancel()

	if err := h.sendSnapshot(conn); err != nil {
		return
	}

	requests := make(chan ClientMessage)
	readDone := make(chan struct{})
	go h.readLoop(conn, requests, readDone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			err = h.send(conn, ServerMessage{Type: "event", Event: &ev})
		case msg := <-requests:
			err = h.handleMessage(conn, msg)
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			h.log.Debug("WebSocket write failed", zap.Error(err))
			return
		}
	}
}

// readLoop owns all reads; writes stay on the connection goroutine.
func (h *Handler) readLoop(conn *websocket.Conn, out chan<- ClientMessage, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		select {
		case out <- msg:
		case <-time.After(writeWait):
			return
		}
	}
}

func (h *Handler) handleMessage(conn *websocket.Conn, msg ClientMessage) error {
	switch msg.Type {
	case "ping":
		return h.send(conn, ServerMessage{Type: "pong"})
	case "snapshot":
		return h.sendSnapshot(conn)
	case "refresh":
		h.registry.RequestRefresh("stream")
		return nil
	default:
		return h.sendError(conn, "unknown message type")
	}
}

func (h *Handler) sendSnapshot(conn *websocket.Conn) error {
	state := h.registry.Snapshot()
	return h.send(conn, ServerMessage{Type: "snapshot", State: &state})
}

func (h *Handler) send(conn *websocket.Conn, msg ServerMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (h *Handler) sendError(conn *websocket.Conn, message string) error {
	return h.send(conn, ServerMessage{Type: "error", Message: message})
}
