package api

import (
	"net/http" // HTTP status codes

	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// SendOtpRequest asks for a one-time code
type SendOtpRequest struct {
	PhoneNumber string `json:"phone_number"` // Defaults to the phone on record
}

// VerifyOtpRequest submits a one-time code
type VerifyOtpRequest struct {
	PinID string `json:"pin_id" binding:"required"` // Returned by send-otp
	Pin   string `json:"pin" binding:"required"`    // Code from the SMS
}

// SendOtpHandler texts a one-time code to the member
func SendOtpHandler(svc *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		var req SendOtpRequest // Body is optional
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.Error(c, http.StatusBadRequest, "Invalid request")
				return
			}
		}
		sent, err := svc.SendOtp(c.Request.Context(), userID, req.PhoneNumber)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, sent)
	}
}

// VerifyOtpHandler checks a one-time code
func VerifyOtpHandler(svc *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		var req VerifyOtpRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		result, err := svc.VerifyOtp(c.Request.Context(), userID, req.PinID, req.Pin)
		if err != nil {
			response.FromError(c, err)
			return
		}
		// A wrong or expired code is reported with the verdict
		if !result.Verified {
			c.JSON(http.StatusBadRequest, response.Envelope{Status: "error", Message: "OTP verification failed", Data: result})
			return
		}
		response.OK(c, result)
	}
}
