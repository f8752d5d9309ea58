package handlers

import (
	"transport-ops-backend/internal/websocket"

	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	hub *websocket.Hub
}

func NewStreamHandler(hub *websocket.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// StreamAlerts upgrades the request into the live alert feed.
func (h *StreamHandler) StreamAlerts(c *gin.Context) {
	h.hub.Handle(c.Writer, c.Request)
}
