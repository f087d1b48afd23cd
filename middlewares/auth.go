package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campusevents/utils"
)

// Context keys set by Authenticate.
const (
	CtxUserIDKey   = "userId"
	CtxUsernameKey = "username"
)

// Authenticate requires a bearer token on the route. A missing header is 401,
// a token that fails verification is 403. The verified identity is injected
// into the gin context.
func Authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}

	token := header
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		token = parts[1]
	}

	userID, username, err := utils.VerifyToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
		return
	}

	c.Set(CtxUserIDKey, userID)
	c.Set(CtxUsernameKey, username)
	c.Next()
}
