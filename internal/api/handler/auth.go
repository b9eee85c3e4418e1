package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userIDContextKey = "devmatch_user_id"
	tokenCookieName  = "token"
	tokenQueryParam  = "token"
)

// authorizeRequest resolves the caller from a bearer header, the token cookie,
// or the token query parameter used by browser websocket handshakes.
func (h *Handler) authorizeRequest(c *gin.Context) {
	token := extractToken(c)
	if token == "" {
		h.abortUnauthenticated(c)
		return
	}

	userID, err := h.Tokens.Validate(token)
	if err != nil {
		h.Logger.Debug("token rejected", zap.Error(err))
		h.abortUnauthenticated(c)
		return
	}

	c.Set(userIDContextKey, userID)
	c.Next()
}

func extractToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if cookie, err := c.Cookie(tokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	return strings.TrimSpace(c.Query(tokenQueryParam))
}

func (h *Handler) abortUnauthenticated(c *gin.Context) {
	lang := h.Localizer.Language(c.GetHeader("Accept-Language"))
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "unauthenticated",
		"message": h.Localizer.GetString(lang, "error_unauthenticated"),
	})
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDContextKey)
}
