// Package handlers provides HTTP API request handlers.
package handlers

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/threefoldtech/cloud-console/internal/ws"
)

// ConsoleHandler exposes the websocket console endpoint.
type ConsoleHandler struct {
	wsHandler *ws.Handler
}

// NewConsoleHandler creates a new ConsoleHandler.
func NewConsoleHandler(wsHandler *ws.Handler) *ConsoleHandler {
	return &ConsoleHandler{wsHandler: wsHandler}
}

// Attach handles GET /ws - attaches the client to the console session.
func (h *ConsoleHandler) Attach(c *gin.Context) {
	if err := h.wsHandler.HandleConnection(c.Writer, c.Request); err != nil {
		// The upgrader has already written its error response.
		log.Printf("WebSocket upgrade failed: %v", err)
	}
}

// RegisterRoutes registers the console routes on the router.
func (h *ConsoleHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.Attach)
}
