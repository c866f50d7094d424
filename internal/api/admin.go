package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Date filters

	"digicoop/internal/domain"   // Importing domain models
	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// UserAdminResponse represents the member data returned to admin
type UserAdminResponse struct {
	ID           uint             `json:"id"`            // User ID
	Email        string           `json:"email"`         // Login email
	FullName     string           `json:"full_name"`     // Display name
	MembershipID string           `json:"membership_id"` // Membership number
	Role         domain.Role      `json:"role"`          // User role
	KycStatus    domain.KycStatus `json:"kyc_status"`    // Identity verification state
	Wallet       *domain.Wallet   `json:"wallet"`        // Associated wallet
}

// ListUsersHandler returns all members with their wallet info
func ListUsersHandler(svc *service.AdminService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()      // Request context
		page, pageSize := pagination(c) // Read pagination
		// Create a cache key based on pagination parameters
		cacheKey := "admin:users:page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached response.Page[UserAdminResponse]
		// If cached data found, return it
		if found, err := cache.Cache.Get(ctx, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			response.OK(c, cached)
			return
		}
		// Fetch paginated users with wallet info
		users, total, err := svc.Users(ctx, page, pageSize)
		if err != nil {
			response.FromError(c, err) // Return on error
			return
		}
		// Map users to response format
		items := make([]UserAdminResponse, len(users))
		for i, u := range users {
			items[i] = UserAdminResponse{
				ID:           u.ID,           // User ID
				Email:        u.Email,        // Login email
				FullName:     u.FullName,     // Display name
				MembershipID: u.MembershipID, // Membership number
				Role:         u.Role,         // User role
				KycStatus:    u.KycStatus,    // KYC state
				Wallet:       u.Wallet,       // Associated wallet
			}
		}
		resp := response.NewPage(items, page, pageSize, total)
		// Cache the response for future requests
		if err := cache.Cache.Set(ctx, cacheKey, resp, cache.TTL); err != nil {
			logrus.WithError(err).Warn("Failed to cache user list")
		}
		response.OK(c, resp) // Return the response
	}
}

// ListTransactionsHandler returns all ledger entries, with optional filtering by member, type, status or date
func ListTransactionsHandler(svc *service.AdminService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()      // Request context
		page, pageSize := pagination(c) // Read pagination
		filter := service.TransactionFilter{
			Type:     domain.TransactionType(strings.ToUpper(c.Query("type"))),     // Filter by type
			Status:   domain.TransactionStatus(strings.ToUpper(c.Query("status"))), // Filter by status
			Page:     page,
			PageSize: pageSize,
		}
		// Filter by member ID
		if userID := c.Query("user_id"); userID != "" {
			id, err := strconv.ParseUint(userID, 10, 64)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "Invalid user_id")
				return
			}
			filter.MemberID = uint(id)
		}
		// Filter by start and end date
		for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
			v := c.Query(name)
			if v == "" {
				continue
			}
			t, err := parseDate(v)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "Invalid "+name+" date")
				return
			}
			*dst = &t
		}
		// Build cache key from all query params
		var keyParts []string
		for _, k := range []string{"user_id", "type", "status", "from", "to"} {
			keyParts = append(keyParts, k+"="+c.Query(k)) // Append key-value pair
		}
		keyParts = append(keyParts, "page="+strconv.Itoa(page), "size="+strconv.Itoa(pageSize))
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":")
		var cached response.Page[domain.Transaction]
		// If cached data found, return it
		if found, err := cache.Cache.Get(ctx, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			response.OK(c, cached)
			return
		}
		// Fetch paginated transactions with filters applied
		txs, total, err := svc.Transactions(ctx, filter)
		if err != nil {
			response.FromError(c, err)
			return
		}
		resp := response.NewPage(txs, page, pageSize, total)
		// Cache the response for future requests
		if err := cache.Cache.Set(ctx, cacheKey, resp, cache.TTL); err != nil {
			logrus.WithError(err).Warn("Failed to cache transaction list")
		}
		response.OK(c, resp) // Return the response
	}
}

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
