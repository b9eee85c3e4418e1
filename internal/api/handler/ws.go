package handler

import (
	"devmatch/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServeWebSocket upgrades an authenticated request to a chat session.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID := currentUserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.Logger.Warn("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	client := chathub.NewWebSocketClient(userID, conn, h.Hub, h.Relay, h.Logger)
	h.Hub.Register(client)
	client.Run()
}
