package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campusevents/middlewares"
	"campusevents/models"
	"campusevents/utils"
)

/* -------------------- Catalog reads -------------------- */

// GET /api/events?search=&category=
func (h *handlers) listEvents(c *gin.Context) {
	views, err := h.catalog.List(c.Request.Context(), c.Query("search"), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching events"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// GET /api/events/:id
func (h *handlers) getEvent(c *gin.Context) {
	view, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching event"})
		return
	}
	c.JSON(http.StatusOK, view)
}

/* -------------------- Event form -------------------- */

// eventForm is the multipart field set for create and update. Numeric and
// boolean fields arrive as strings and are parsed explicitly; malformed
// values are rejected rather than coerced.
type eventForm struct {
	Title           string `validate:"required"`
	Description     string `validate:"required"`
	Location        string `validate:"required"`
	Date            string `validate:"required,datetime=2006-01-02"`
	Time            string `validate:"required,datetime=15:04"`
	IsPaid          bool
	Price           float64
	MaxParticipants *int
	Category        string `validate:"required"`
	ContactEmail    string `validate:"omitempty,email"`
	ContactPhone    string
}

func (h *handlers) parseEventForm(c *gin.Context) (eventForm, error) {
	f := eventForm{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Location:     c.PostForm("location"),
		Date:         c.PostForm("date"),
		Time:         c.PostForm("time"),
		Category:     c.PostForm("category"),
		ContactEmail: c.PostForm("contact_email"),
		ContactPhone: c.PostForm("contact_phone"),
	}

	if v := c.PostForm("is_paid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid is_paid value %q", v)
		}
		f.IsPaid = b
	}

	if v := c.PostForm("price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			return f, fmt.Errorf("invalid price value %q", v)
		}
		f.Price = p
	}
	// Price only applies to paid events.
	if !f.IsPaid {
		f.Price = 0
	}

	// An absent capacity means unlimited and is stored as null, not zero.
	if v := c.PostForm("max_participants"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("invalid max_participants value %q", v)
		}
		f.MaxParticipants = &n
	}

	if err := h.validate.Struct(f); err != nil {
		return f, errors.New("All required fields must be filled")
	}
	return f, nil
}

func (f eventForm) apply(e *models.Event) {
	e.Title = f.Title
	e.Description = f.Description
	e.Location = f.Location
	e.Date = f.Date
	e.Time = f.Time
	e.IsPaid = f.IsPaid
	e.Price = f.Price
	e.MaxParticipants = f.MaxParticipants
	e.Category = f.Category
	e.ContactEmail = f.ContactEmail
	e.ContactPhone = f.ContactPhone
}

/* -------------------- Event mutations -------------------- */

// POST /api/events (multipart, optional image)
func (h *handlers) createEvent(c *gin.Context) {
	form, err := h.parseEventForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := models.Event{
		ID:        uuid.NewString(),
		CreatorID: c.GetInt64(middlewares.CtxUserIDKey),
		CreatedAt: time.Now().UTC(),
	}
	form.apply(&event)

	if fh, err := c.FormFile("image"); err == nil {
		url, err := utils.SaveUpload(c, fh, h.UploadDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving image"})
			return
		}
		event.ImageURL = url
	}

	if err := h.Events.Create(c.Request.Context(), &event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating event"})
		return
	}

	if h.Invalidator != nil {
		h.Invalidator.PurgeEventsList(c)
		h.Invalidator.PurgeEventItem(c, event.ID)
	}
	c.JSON(http.StatusOK, gin.H{"id": event.ID, "message": "Event created successfully"})
}

// PUT /api/events/:id — creator only. The stored image survives unless a new
// one is uploaded.
func (h *handlers) updateEvent(c *gin.Context) {
	id := c.Param("id")
	userID := c.GetInt64(middlewares.CtxUserIDKey)

	old, err := h.Events.ByID(c.Request.Context(), id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking event ownership"})
		return
	}
	if err != nil || old.CreatorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this event"})
		return
	}

	form, err := h.parseEventForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := old
	form.apply(&event)
	if fh, err := c.FormFile("image"); err == nil {
		url, err := utils.SaveUpload(c, fh, h.UploadDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving image"})
			return
		}
		event.ImageURL = url
	}

	if err := h.Events.Update(c.Request.Context(), &event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating event"})
		return
	}

	if h.Invalidator != nil {
		h.Invalidator.PurgeEventsList(c)
		h.Invalidator.PurgeEventItem(c, id)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event updated successfully"})
}

// DELETE /api/events/:id — creator only. Registrations and discussions for
// the event are removed too: the dependents live in Postgres while the event
// lives in Mongo, so no foreign key can cascade for us.
func (h *handlers) deleteEvent(c *gin.Context) {
	id := c.Param("id")
	userID := c.GetInt64(middlewares.CtxUserIDKey)
	ctx := c.Request.Context()

	event, err := h.Events.ByID(ctx, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking event ownership"})
		return
	}
	if err != nil || event.CreatorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this event"})
		return
	}

	if err := h.Events.Delete(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting event"})
		return
	}
	if err := h.Registrations.DeleteByEvent(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting event"})
		return
	}
	if err := h.Discussions.DeleteByEvent(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting event"})
		return
	}

	if h.Invalidator != nil {
		h.Invalidator.PurgeEventsList(c)
		h.Invalidator.PurgeEventItem(c, id)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
