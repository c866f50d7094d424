package api

import (
	"context"  // Request context
	"net/http" // HTTP status codes
	"time"     // Due dates

	"digicoop/internal/domain"   // Importing domain models
	"digicoop/internal/ledger"   // Ledger receipts
	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Decimal amounts
)

// CreateGoalRequest opens a savings goal
type CreateGoalRequest struct {
	Title        string             `json:"title" binding:"required"` // Goal title
	TargetAmount decimal.Decimal    `json:"target_amount"`            // Amount to reach
	Type         domain.SavingsType `json:"type"`                     // Goal type, defaults to flexible
	DueDate      *time.Time         `json:"due_date"`                 // Optional target date
	Locked       bool               `json:"is_locked"`                // Locked goals refuse withdrawals
}

// ListGoalsHandler returns the member's savings goals
func ListGoalsHandler(svc *service.SavingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		goals, err := svc.Goals(c.Request.Context(), userID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, goals)
	}
}

// CreateGoalHandler opens a savings goal for the member
func CreateGoalHandler(svc *service.SavingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		var req CreateGoalRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		goal, err := svc.CreateGoal(c.Request.Context(), userID, service.CreateGoalInput{
			Title:        req.Title,
			TargetAmount: req.TargetAmount,
			Type:         req.Type,
			DueDate:      req.DueDate,
			Locked:       req.Locked,
		})
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Created(c, goal)
	}
}

// ContributeHandler moves money from the wallet into a goal
func ContributeHandler(svc *service.SavingsService, cache CacheConfig) gin.HandlerFunc {
	return moveGoalFunds(svc.Contribute, cache)
}

// WithdrawHandler moves money from a goal back into the wallet
func WithdrawHandler(svc *service.SavingsService, cache CacheConfig) gin.HandlerFunc {
	return moveGoalFunds(svc.Withdraw, cache)
}

// goalMovement is a savings operation between wallet and goal
type goalMovement func(ctx context.Context, memberID, goalID uint, amount decimal.Decimal) (*ledger.Receipt, error)

// moveGoalFunds binds the goal id and amount and runs a goal movement
func moveGoalFunds(move goalMovement, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		goalID, ok := idParam(c, "id") // Goal ID from path
		if !ok {
			return
		}
		var req AmountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		receipt, err := move(c.Request.Context(), userID, goalID, req.Amount)
		if err != nil {
			response.FromError(c, err)
			return
		}
		invalidate(cache, userID) // Balance changed
		response.OK(c, receipt)
	}
}
