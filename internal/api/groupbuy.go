package api

import (
	"net/http" // HTTP status codes
	"time"     // Deadlines

	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Decimal amounts
)

// CreateItemRequest lists a group-buy item
type CreateItemRequest struct {
	Name             string          `json:"name" binding:"required"`     // Item name
	Description      string          `json:"description"`                 // Item description
	ImageURL         string          `json:"image_url"`                   // Item picture
	PricePerUnit     decimal.Decimal `json:"price_per_unit"`              // Unit price
	MinOrderQuantity int             `json:"min_order_quantity"`          // Units needed for the pool
	Deadline         time.Time       `json:"deadline" binding:"required"` // Orders rejected after this
}

// OrderRequest buys units of an item
type OrderRequest struct {
	Quantity int `json:"quantity" binding:"required"` // Units to buy
}

// ListItemsHandler returns the open group-buy items
func ListItemsHandler(svc *service.GroupBuyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.Items(c.Request.Context())
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, items)
	}
}

// GetItemHandler returns an item with its orders
func GetItemHandler(svc *service.GroupBuyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := idParam(c, "id") // Item ID from path
		if !ok {
			return
		}
		item, err := svc.Item(c.Request.Context(), itemID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, item)
	}
}

// CreateItemHandler lists a new group-buy item
func CreateItemHandler(svc *service.GroupBuyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateItemRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		item, err := svc.CreateItem(c.Request.Context(), service.CreateItemInput{
			Name:             req.Name,
			Description:      req.Description,
			ImageURL:         req.ImageURL,
			PricePerUnit:     req.PricePerUnit,
			MinOrderQuantity: req.MinOrderQuantity,
			Deadline:         req.Deadline,
		})
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Created(c, item)
	}
}

// PlaceOrderHandler buys units of an item from the member's wallet
func PlaceOrderHandler(svc *service.GroupBuyService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		itemID, ok := idParam(c, "id") // Item ID from path
		if !ok {
			return
		}
		var req OrderRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		receipt, err := svc.Order(c.Request.Context(), userID, itemID, req.Quantity)
		if err != nil {
			response.FromError(c, err)
			return
		}
		invalidate(cache, userID) // Balance changed
		response.OK(c, receipt)
	}
}

// ListOrdersHandler returns the member's orders
func ListOrdersHandler(svc *service.GroupBuyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		orders, err := svc.Orders(c.Request.Context(), userID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, orders)
	}
}
