package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/collab-editor/backend/internal/ws"
)

// WebSocketHandler handles WebSocket connections for collaboration sessions.
type WebSocketHandler struct {
	wsHandler *ws.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler *ws.Handler) *WebSocketHandler {
	return &WebSocketHandler{wsHandler: wsHandler}
}

// Collab handles WS /api/collab - opens the collaboration channel. The
// connection joins a session afterwards via a join-session message.
func (h *WebSocketHandler) Collab(c *gin.Context) {
	if err := h.wsHandler.HandleConnection(c.Writer, c.Request); err != nil {
		// Upgrade failures already wrote a response
		return
	}
}

// RegisterRoutes registers the WebSocket handler routes on a Gin router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/collab", h.Collab)
}
