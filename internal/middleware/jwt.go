package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/utils"    // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set for authenticated requests
const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// JWTAuthMiddleware validates JWT tokens and extracts the member identity
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			response.Error(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			response.Error(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store member ID in context
		c.Set(RoleKey, claims.Role)     // Store role in context
		c.Next()                        // Proceed to the next handler
	}
}

// UserID returns the authenticated member ID, if any
func UserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UserIDKey) // Get member ID from context
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
