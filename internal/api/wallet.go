package api

import (
	"strconv" // String conversion

	"digicoop/internal/domain"   // Importing domain models
	"digicoop/internal/ledger"   // Ledger engine
	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/utils"    // Cache keys

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// WalletResponse is the balance view
type WalletResponse struct {
	Wallet domain.Wallet `json:"wallet"` // Member wallet
	Cached bool          `json:"cached"` // Served from cache
}

// GetWalletHandler returns the authenticated member's wallet, creating it on first access
func GetWalletHandler(engine *ledger.Engine, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		ctx := c.Request.Context()          // Request context
		cacheKey := utils.WalletKey(userID) // Cache key for wallet
		var cached domain.Wallet            // Wallet struct to hold cached data
		// If found in cache, return it
		if found, err := cache.Cache.Get(ctx, cacheKey, &cached); err == nil && found {
			response.OK(c, WalletResponse{Wallet: cached, Cached: true})
			return
		}
		// If not in cache, fetch from the ledger
		wallet, err := engine.Wallet(ctx, userID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		// Cache the wallet
		if err := cache.Cache.Set(ctx, cacheKey, wallet, cache.TTL); err != nil {
			logrus.WithError(err).Warn("Failed to cache wallet")
		}
		response.OK(c, WalletResponse{Wallet: *wallet, Cached: false}) // Return wallet info
	}
}

// GetTransactionHistoryHandler returns the member's ledger entries, newest first
func GetTransactionHistoryHandler(engine *ledger.Engine, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		page, pageSize := pagination(c) // Read pagination
		// Cache key per member and page
		cacheKey := utils.HistoryPrefix(userID) + "page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := c.Request.Context()
		var cached response.Page[domain.Transaction]
		// If found in cache, return it
		if found, err := cache.Cache.Get(ctx, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			response.OK(c, cached)
			return
		}
		// Fetch the page from the ledger
		entries, total, err := engine.History(ctx, userID, page, pageSize)
		if err != nil {
			response.FromError(c, err)
			return
		}
		resp := response.NewPage(entries, page, pageSize, total)
		// Cache the page
		if err := cache.Cache.Set(ctx, cacheKey, resp, cache.TTL); err != nil {
			logrus.WithError(err).Warn("Failed to cache transaction history")
		}
		response.OK(c, resp) // Return transaction history
	}
}
