package api

import (
	"errors"   // Error kinds
	"net/http" // HTTP status codes

	"digicoop/internal/domain"   // Importing domain models
	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Decimal amounts
	"github.com/sirupsen/logrus"    // Logging library
)

// WebhookHashHeader carries the shared secret on gateway notifications
const WebhookHashHeader = "verif-hash"

// AmountRequest is the body of every endpoint that moves an amount
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"` // Amount in major units
}

// InitiateDepositHandler opens a hosted payment and records the pending deposit
func InitiateDepositHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		var req AmountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		// Ask the gateway for a checkout link
		intent, err := svc.InitiateDeposit(c.Request.Context(), userID, req.Amount)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, intent) // Return reference and link
	}
}

// WebhookHandler applies gateway notifications. Accepted deliveries always get 200 so the
// gateway stops retrying, duplicates included.
func WebhookHandler(svc *service.PaymentService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Reject deliveries without the shared secret
		if !svc.VerifySignature(c.GetHeader(WebhookHashHeader)) {
			logrus.WithField("ip", c.ClientIP()).Warn("Webhook signature rejected")
			response.Error(c, http.StatusUnauthorized, "Invalid signature")
			return
		}
		var ev service.WebhookEvent // Bind JSON request to struct
		if err := c.ShouldBindJSON(&ev); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid payload")
			return
		}
		out, err := svc.HandleWebhook(c.Request.Context(), ev)
		if err != nil {
			entry := logrus.WithError(err).WithField("reference", ev.TxRef)
			// Rejections are logged and acknowledged, other failures get retried by the gateway
			if errors.Is(err, domain.ErrPreconditionFailed) {
				entry.Warn("Webhook rejected")
				response.OK(c, service.WebhookOutcome{Reference: ev.TxRef, Outcome: service.OutcomeUnverified})
				return
			}
			entry.Error("Webhook processing failed")
			response.FromError(c, err)
			return
		}
		// Drop cached balance after a credit
		if out.Outcome == service.OutcomeCredited {
			invalidate(cache, out.MemberID)
		}
		response.OK(c, out)
	}
}
