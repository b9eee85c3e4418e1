package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ChatHistory returns the transcript with a match and the match's profile.
func (h *Handler) ChatHistory(c *gin.Context) {
	history, err := h.Relay.History(c.Request.Context(), currentUserID(c), c.Param("targetUserID"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"roomId":        history.RoomID,
		"messages":      history.Messages,
		"targetProfile": history.TargetProfile,
	})
}
