package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusevents/middlewares"
	"campusevents/models"
)

// POST /api/events/:id/register
//
// The payment flow is simulated client-side, so the row is written with
// payment_status already completed. The unique constraint decides races:
// the losing request gets "already registered", never a server error.
// Capacity (max_participants) is not checked here.
func (h *handlers) registerForEvent(c *gin.Context) {
	eventID := c.Param("id")
	userID := c.GetInt64(middlewares.CtxUserIDKey)
	ctx := c.Request.Context()

	if _, err := h.Events.ByID(ctx, eventID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching event"})
		return
	}

	if err := h.Registrations.Register(ctx, userID, eventID); err != nil {
		if errors.Is(err, models.ErrAlreadyRegistered) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already registered for this event"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error registering for event"})
		return
	}

	// The derived participant_count changed.
	if h.Invalidator != nil {
		h.Invalidator.PurgeEventsList(c)
		h.Invalidator.PurgeEventItem(c, eventID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully registered for event"})
}

// DELETE /api/events/:id/register
func (h *handlers) cancelRegistration(c *gin.Context) {
	eventID := c.Param("id")
	userID := c.GetInt64(middlewares.CtxUserIDKey)

	if err := h.Registrations.Cancel(c.Request.Context(), userID, eventID); err != nil {
		if errors.Is(err, models.ErrNotRegistered) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Not registered for this event"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error unregistering from event"})
		return
	}

	if h.Invalidator != nil {
		h.Invalidator.PurgeEventsList(c)
		h.Invalidator.PurgeEventItem(c, eventID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully unregistered from event"})
}

// GET /api/user/created-events
func (h *handlers) createdEvents(c *gin.Context) {
	views, err := h.catalog.CreatedBy(c.Request.Context(), c.GetInt64(middlewares.CtxUserIDKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching created events"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// GET /api/user/registered-events
func (h *handlers) registeredEvents(c *gin.Context) {
	views, err := h.catalog.RegisteredBy(c.Request.Context(), c.GetInt64(middlewares.CtxUserIDKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching registered events"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// GET /api/events/:id/participants
//
// Any authenticated caller may read the roster; there is deliberately no
// ownership check here.
func (h *handlers) listParticipants(c *gin.Context) {
	parts, err := h.Registrations.ParticipantsByEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching participants"})
		return
	}
	c.JSON(http.StatusOK, parts)
}
