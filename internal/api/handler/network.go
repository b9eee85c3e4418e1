package handler

import (
	"net/http"

	"devmatch/backend/internal/match"

	"github.com/gin-gonic/gin"
)

// Swipe records an interested or pass swipe on another user.
func (h *Handler) Swipe(c *gin.Context) {
	intent, err := match.ParseIntent(c.Param("intent"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	connection, err := h.Engine.Swipe(c.Request.Context(), currentUserID(c), c.Param("recipientID"), intent)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": h.message(c, "swipe_"+string(intent)),
		"match":   connection.MutualMatch,
		"data":    connection,
	})
}

// Review accepts or rejects an inbound request.
func (h *Handler) Review(c *gin.Context) {
	decision, err := match.ParseDecision(c.Param("decision"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	connection, err := h.Engine.Review(c.Request.Context(), currentUserID(c), c.Param("requestID"), decision)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.message(c, "review_"+string(decision)),
		"match":   connection.MutualMatch,
		"data":    connection,
	})
}

// Feed lists profiles the caller has not interacted with yet.
func (h *Handler) Feed(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	feed, err := h.Engine.Feed(c.Request.Context(), currentUserID(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	key := "feed_fetched"
	if len(feed) == 0 {
		key = "feed_empty"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      h.message(c, key),
		"feed":         feed,
		"totalResults": len(feed),
	})
}

// PendingRequests lists inbound requests waiting for the caller's review.
func (h *Handler) PendingRequests(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	requests, err := h.Engine.PendingRequests(c.Request.Context(), currentUserID(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.message(c, "pending_fetched"),
		"data":    requests,
	})
}

// Matches lists the caller's mutual connections.
func (h *Handler) Matches(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	profiles, err := h.Engine.MutualConnections(c.Request.Context(), currentUserID(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.message(c, "matches_fetched"),
		"data":    profiles,
	})
}
