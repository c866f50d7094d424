// Package api holds the HTTP handlers and routes.
package api

import (
	"context"  // Context for cache operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Cache TTLs

	"digicoop/internal/middleware" // Auth context helpers
	"digicoop/internal/response"   // JSON envelope
	"digicoop/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin" // Gin web framework
)

// Pagination bounds
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CacheConfig is the read-through cache and its entry lifetime
type CacheConfig struct {
	Cache utils.Cache
	TTL   time.Duration
}

// memberID returns the authenticated member or aborts with 401
func memberID(c *gin.Context) (uint, bool) {
	id, ok := middleware.UserID(c) // Get member ID from context
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Unauthorized")
	}
	return id, ok
}

// idParam parses a positive numeric path parameter or aborts with 400
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64) // Parse path parameter
	if err != nil || v == 0 {
		response.Error(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// pagination reads page and page_size from the query with defaults and bounds
func pagination(c *gin.Context) (int, int) {
	// Defaults
	page, pageSize := 1, defaultPageSize
	// If page exists in query
	if p := c.Query("page"); p != "" {
		// Convert page to integer
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// If page_size exists in query
	if ps := c.Query("page_size"); ps != "" {
		// Convert page_size to integer
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= maxPageSize {
			pageSize = v // Set page size if valid
		}
	}
	return page, pageSize
}

// invalidate drops cached wallet and history entries of the members after a money movement
func invalidate(cache CacheConfig, userIDs ...uint) {
	ctx := context.Background() // Invalidation outlives the request
	for _, id := range userIDs {
		utils.InvalidateMember(ctx, cache.Cache, id)
	}
}
