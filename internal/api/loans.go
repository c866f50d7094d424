package api

import (
	"net/http" // HTTP status codes

	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Decimal amounts
)

// LoanApplicationRequest applies for a loan
type LoanApplicationRequest struct {
	Amount         decimal.Decimal `json:"amount"`          // Principal
	Purpose        string          `json:"purpose"`         // Free text purpose
	DurationMonths int             `json:"duration_months"` // Repayment window
}

// ListLoansHandler returns the member's loans
func ListLoansHandler(svc *service.LoanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		loans, err := svc.Loans(c.Request.Context(), userID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, loans)
	}
}

// LoanEligibilityHandler returns the member's borrowing position
func LoanEligibilityHandler(svc *service.LoanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		elig, err := svc.Eligibility(c.Request.Context(), userID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, elig)
	}
}

// ApplyLoanHandler records a pending loan application
func ApplyLoanHandler(svc *service.LoanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		var req LoanApplicationRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		loan, err := svc.Apply(c.Request.Context(), userID, service.LoanApplication{
			Amount:         req.Amount,
			Purpose:        req.Purpose,
			DurationMonths: req.DurationMonths,
		})
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Created(c, loan)
	}
}

// RepayLoanHandler pays part or all of an active loan from the wallet
func RepayLoanHandler(svc *service.LoanService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		loanID, ok := idParam(c, "id") // Loan ID from path
		if !ok {
			return
		}
		var req AmountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		receipt, err := svc.Repay(c.Request.Context(), userID, loanID, req.Amount)
		if err != nil {
			response.FromError(c, err)
			return
		}
		invalidate(cache, userID) // Balance changed
		response.OK(c, receipt)
	}
}

// ApproveLoanHandler disburses a pending loan into the borrower's wallet
func ApproveLoanHandler(svc *service.LoanService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		loanID, ok := idParam(c, "id") // Loan ID from path
		if !ok {
			return
		}
		loan, receipt, err := svc.Approve(c.Request.Context(), loanID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		invalidate(cache, loan.UserID) // Borrower balance changed
		response.OK(c, gin.H{"loan": loan, "receipt": receipt})
	}
}

// RejectLoanHandler declines a pending loan
func RejectLoanHandler(svc *service.LoanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		loanID, ok := idParam(c, "id") // Loan ID from path
		if !ok {
			return
		}
		loan, err := svc.Reject(c.Request.Context(), loanID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, loan)
	}
}
