package routes

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"campusevents/middlewares"
	"campusevents/models"
	"campusevents/utils"
)

// Deps carries everything the gateway needs, injected from main.
type Deps struct {
	Users         models.UserRepository
	Events        models.EventRepository
	Registrations models.RegistrationRepository
	Discussions   models.DiscussionRepository
	Notifications models.NotificationRepository
	RDB           *redis.Client
	Invalidator   *utils.CacheInvalidator
	UploadDir     string
}

type handlers struct {
	Deps
	catalog  *models.Catalog
	validate *validator.Validate
}

// RegisterRoutes mounts the API. Public catalog reads sit behind the global
// IP limiter only; register/login get a stricter per-IP limiter; everything
// authenticated additionally gets a per-user limiter and a daily quota.
func RegisterRoutes(server *gin.Engine, d Deps) {
	h := &handlers{
		Deps:     d,
		catalog:  models.NewCatalog(d.Events, d.Users, d.Registrations),
		validate: validator.New(),
	}

	globalLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     20,
		Burst:   40,
		IdleTTL: 3 * time.Minute,
	})
	server.Use(globalLimiter.Middleware(func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}))

	api := server.Group("/api")

	authLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     0.5,
		Burst:   2,
		IdleTTL: 10 * time.Minute,
	})
	api.POST("/register",
		authLimiter.Middleware(func(c *gin.Context) string { return "register:" + c.ClientIP() }),
		h.register,
	)
	api.POST("/login",
		authLimiter.Middleware(func(c *gin.Context) string { return "login:" + c.ClientIP() }),
		h.login,
	)

	// Public catalog reads.
	api.GET("/events", h.listEvents)
	api.GET("/events/:id", h.getEvent)
	api.GET("/events/:id/discussions", h.listDiscussions)

	auth := api.Group("")
	auth.Use(middlewares.Authenticate)

	userLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     5,
		Burst:   10,
		IdleTTL: 10 * time.Minute,
	})
	auth.Use(userLimiter.Middleware(func(c *gin.Context) string {
		return "u:" + strconv.FormatInt(c.GetInt64(middlewares.CtxUserIDKey), 10)
	}))

	auth.Use(middlewares.Quota(d.RDB, middlewares.QuotaRule{
		Limit:  2000,
		Window: 24 * time.Hour,
		KeyFn: func(c *gin.Context) string {
			uid := c.GetInt64(middlewares.CtxUserIDKey)
			if uid == 0 {
				return ""
			}
			return "quota:user:" + strconv.FormatInt(uid, 10) + ":day"
		},
	}))

	auth.POST("/events", h.createEvent)
	auth.PUT("/events/:id", h.updateEvent)
	auth.DELETE("/events/:id", h.deleteEvent)
	auth.POST("/events/:id/register", h.registerForEvent)
	auth.DELETE("/events/:id/register", h.cancelRegistration)
	auth.GET("/events/:id/participants", h.listParticipants)
	auth.POST("/events/:id/discussions", h.postDiscussion)
	auth.GET("/user/created-events", h.createdEvents)
	auth.GET("/user/registered-events", h.registeredEvents)
	auth.GET("/notifications", h.listNotifications)
}

/* --------------------- Auth --------------------- */

// POST /api/register
func (h *handlers) register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"fullName" binding:"required"`
		College  string `json:"college"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All required fields must be filled"})
		return
	}

	u := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		College:  req.College,
		Phone:    req.Phone,
	}
	if err := h.Users.Create(c.Request.Context(), &u); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	token, err := utils.GenerateToken(u.ID, u.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       u.ID,
			"username": u.Username,
			"email":    u.Email,
			"fullName": u.FullName,
		},
	})
}

// POST /api/login — the identifier may be a username or an email.
func (h *handlers) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All required fields must be filled"})
		return
	}

	user, err := h.Users.ValidateCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "User not found"})
		case errors.Is(err, models.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"fullName": user.FullName,
		},
	})
}
