package api

import (
	"net/http" // HTTP status codes

	"digicoop/internal/gateway"  // Identity provider request
	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// VerifyBvnRequest submits a BVN for identity verification
type VerifyBvnRequest struct {
	Bvn       string `json:"bvn" binding:"required"`        // 11 digit BVN
	FirstName string `json:"first_name" binding:"required"` // Name on record
	LastName  string `json:"last_name" binding:"required"`  // Surname on record
	Dob       string `json:"dob"`                           // YYYY-MM-DD, optional
}

// VerifyBvnHandler checks the member's BVN with the identity provider
func VerifyBvnHandler(svc *service.KycService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		var req VerifyBvnRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		result, err := svc.VerifyBVN(c.Request.Context(), userID, gateway.BvnRequest{
			Bvn:       req.Bvn,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Dob:       req.Dob,
		})
		if err != nil {
			response.FromError(c, err)
			return
		}
		// A provider mismatch is recorded, then reported as a failed verification
		if !result.Verified {
			c.JSON(http.StatusBadRequest, response.Envelope{Status: "error", Message: "BVN verification failed", Data: result})
			return
		}
		response.OK(c, result)
	}
}
