package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by the middleware.
const (
	ContextUserID = "auth_user_id"
	ContextActor  = "auth_actor"
	ContextRole   = "auth_role"
)

// Middleware validates the bearer token and stores the caller's identity in
// the request context.
func Middleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextActor, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor for audit records, "system"
// outside an authenticated request (workers, synthetic transitions).
func ActorFrom(c *gin.Context) string {
	if actor := c.GetString(ContextActor); actor != "" {
		return actor
	}
	return "system"
}
