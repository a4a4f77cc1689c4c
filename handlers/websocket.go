package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"query-server/auth"
	"query-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket message envelope
type incomingMessage struct {
	Type string `json:"type"` // ping
}

// WSHandler serves the live history feed.
type WSHandler struct {
	mgr    *ws.Manager
	logger *slog.Logger
}

func NewWSHandler(mgr *ws.Manager) *WSHandler {
	return &WSHandler{mgr: mgr, logger: slog.Default().With("source", "ws")}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleHistoryWS upgrades to websocket and keeps the connection registered
// under the caller's owner key until it closes.
// GET /ws?token=<token>
func (h *WSHandler) HandleHistoryWS(c *gin.Context) {
	p, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token", "code": "unauthorized"})
		return
	}
	owner := p.OwnerKey()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	h.mgr.Register(owner, conn)
	h.logger.Info("client connected", "owner", owner, "clients", h.mgr.Count(owner))

	defer func() {
		h.mgr.Unregister(owner, conn)
		h.logger.Info("client disconnected", "owner", owner)
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read error", "owner", owner, "error", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var base incomingMessage
		if err := json.Unmarshal(message, &base); err != nil {
			h.logger.Debug("invalid json", "owner", owner, "error", err)
			continue
		}

		switch base.Type {
		case ws.TypePing:
			pong, _ := json.Marshal(ws.Event{Type: ws.TypePong, Timestamp: time.Now().UTC()})
			if err := h.mgr.Send(owner, conn, pong); err != nil {
				return
			}
		default:
			h.logger.Debug("unknown message type", "owner", owner, "type", base.Type)
		}
	}
}

// GetConnections GET /api/v1/ws/connections
func (h *WSHandler) GetConnections(c *gin.Context) {
	p, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token", "code": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"connections": h.mgr.Count(p.OwnerKey()),
		"owners":      len(h.mgr.Owners()),
	}})
}
