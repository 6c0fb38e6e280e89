package middleware

import (
	"strings"

	"github.com/atelierhq/atelier/backend/internal/utils"
	"github.com/atelierhq/atelier/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// AuthRequired validates the Bearer token and stores the acting user's
// identity on the request context. Every downstream check derives the
// actor from this identity and nothing else.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// AdminRequired gates site-administration endpoints. It does not grant
// any per-project permission.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists || role != "admin" {
			response.Forbidden(c, "admin privileges required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's ID from the context.
func GetUserID(c *gin.Context) uint {
	if v, exists := c.Get(ContextUserID); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// GetUsername returns the authenticated username from the context.
func GetUsername(c *gin.Context) string {
	if v, exists := c.Get(ContextUsername); exists {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

// GetRole returns the authenticated user's site role from the context.
func GetRole(c *gin.Context) string {
	if v, exists := c.Get(ContextRole); exists {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}
