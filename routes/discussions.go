package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusevents/middlewares"
	"campusevents/models"
)

// GET /api/events/:id/discussions — publicly readable, oldest first.
func (h *handlers) listDiscussions(c *gin.Context) {
	msgs, err := h.Discussions.ListByEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching discussions"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// POST /api/events/:id/discussions
func (h *handlers) postDiscussion(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	d := models.Discussion{
		EventID: c.Param("id"),
		UserID:  c.GetInt64(middlewares.CtxUserIDKey),
		Message: req.Message,
	}
	if err := h.Discussions.Post(c.Request.Context(), &d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error posting discussion"})
		return
	}

	if h.Invalidator != nil {
		h.Invalidator.PurgeEventItem(c, d.EventID)
	}
	c.JSON(http.StatusOK, gin.H{"id": d.ID, "message": "Discussion posted successfully"})
}

// GET /api/notifications — newest first. Nothing in the request surface
// writes notifications.
func (h *handlers) listNotifications(c *gin.Context) {
	notifs, err := h.Notifications.ListByUser(c.Request.Context(), c.GetInt64(middlewares.CtxUserIDKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching notifications"})
		return
	}
	c.JSON(http.StatusOK, notifs)
}
