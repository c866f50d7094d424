package api

import (
	"net/http" // HTTP status codes
	"time"     // Closing dates

	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Decimal amounts
)

// CreateProjectRequest opens an investment project
type CreateProjectRequest struct {
	Title          string          `json:"title" binding:"required"`        // Project title
	Description    string          `json:"description"`                     // Project description
	Pitch          string          `json:"pitch"`                           // Pitch deck text
	TargetAmount   decimal.Decimal `json:"target_amount"`                   // Funding goal
	RoiPercentage  decimal.Decimal `json:"roi_percentage"`                  // Promised return
	DurationMonths int             `json:"duration_months"`                 // Project length
	ClosingDate    time.Time       `json:"closing_date" binding:"required"` // Stakes rejected after this
}

// ListProjectsHandler returns the investment projects
func ListProjectsHandler(svc *service.InvestmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := svc.Projects(c.Request.Context())
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, projects)
	}
}

// GetProjectHandler returns one project with its investor count
func GetProjectHandler(svc *service.InvestmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := idParam(c, "id") // Project ID from path
		if !ok {
			return
		}
		detail, err := svc.Project(c.Request.Context(), projectID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, detail)
	}
}

// CreateProjectHandler opens a new investment project
func CreateProjectHandler(svc *service.InvestmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProjectRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		project, err := svc.CreateProject(c.Request.Context(), service.CreateProjectInput{
			Title:          req.Title,
			Description:    req.Description,
			Pitch:          req.Pitch,
			TargetAmount:   req.TargetAmount,
			RoiPercentage:  req.RoiPercentage,
			DurationMonths: req.DurationMonths,
			ClosingDate:    req.ClosingDate,
		})
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Created(c, project)
	}
}

// InvestHandler stakes money from the member's wallet in a project
func InvestHandler(svc *service.InvestmentService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		projectID, ok := idParam(c, "id") // Project ID from path
		if !ok {
			return
		}
		var req AmountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		receipt, err := svc.Invest(c.Request.Context(), userID, projectID, req.Amount)
		if err != nil {
			response.FromError(c, err)
			return
		}
		invalidate(cache, userID) // Balance changed
		response.OK(c, receipt)
	}
}

// PortfolioHandler returns the member's stakes
func PortfolioHandler(svc *service.InvestmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := memberID(c) // Get member ID from context
		if !ok {
			return
		}
		stakes, err := svc.Portfolio(c.Request.Context(), userID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, stakes)
	}
}

// PayDividendsHandler credits every unpaid stake of a project
func PayDividendsHandler(svc *service.InvestmentService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := idParam(c, "id") // Project ID from path
		if !ok {
			return
		}
		run, err := svc.PayDividends(c.Request.Context(), projectID)
		if run != nil {
			invalidate(cache, run.MemberIDs...) // Credited balances changed, even on a partial run
		}
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, run)
	}
}
