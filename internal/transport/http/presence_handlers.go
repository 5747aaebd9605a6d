package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/collegechat-server/internal/core"
)

// PresenceHandlers exposes the presence list over REST.
type PresenceHandlers struct {
	hub *core.Hub
}

// NewPresenceHandlers creates presence handlers backed by the hub registry.
func NewPresenceHandlers(hub *core.Hub) *PresenceHandlers {
	return &PresenceHandlers{hub: hub}
}

// ListUsers returns the users currently in the chat.
// GET /api/users
func (h *PresenceHandlers) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, usersPayload(h.hub.Users()))
}
