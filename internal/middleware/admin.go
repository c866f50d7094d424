package middleware

import (
	"net/http" // HTTP status codes

	"digicoop/internal/domain"   // Importing domain models
	"digicoop/internal/response" // JSON envelope

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// AdminOnlyMiddleware checks the member's role from the database on each request
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := UserID(c) // Get member ID from context
		// Check if member ID exists in context
		if !exists {
			// If not, abort with unauthorized status
			response.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var user domain.User // Fetch member from database
		if err := db.WithContext(c.Request.Context()).Select("id", "role").First(&user, userID).Error; err != nil {
			// If member not found or any error, abort with forbidden status
			response.Error(c, http.StatusForbidden, "Admin access required")
			return
		}
		// Check if member role is admin
		if user.Role != domain.RoleAdmin {
			// If not admin, abort with forbidden status
			response.Error(c, http.StatusForbidden, "Admin access required")
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}
