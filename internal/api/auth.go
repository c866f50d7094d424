package api

import (
	"net/http" // HTTP status codes

	"digicoop/internal/domain"   // Importing domain models
	"digicoop/internal/response" // JSON envelope
	"digicoop/internal/service"  // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the sign-up body
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`           // Login email
	PhoneNumber string `json:"phone_number" binding:"required"`          // Phone number for SMS
	FullName    string `json:"full_name" binding:"required"`             // Display name
	Password    string `json:"password" binding:"required,min=8,max=72"` // Plain password, hashed before storage
}

// LoginRequest is the sign-in body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Login email
	Password string `json:"password" binding:"required"` // Plain password
}

// AuthResponse is returned on successful login
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Authenticated member
}

// RegisterHandler creates a member account and its wallet
func RegisterHandler(svc *service.AuthService, cache CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			response.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
		// Create the member
		user, err := svc.Register(c.Request.Context(), service.RegisterInput{
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			FullName:    req.FullName,
			Password:    req.Password,
		})
		if err != nil {
			response.FromError(c, err) // Map error kind to status
			return
		}
		_ = cache.Cache.DeletePrefix(c.Request.Context(), "admin:users:") // Admin user lists are stale
		response.Created(c, user)                                         // Return the new member
	}
}

// LoginHandler authenticates a member and returns a JWT token
func LoginHandler(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			response.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}
		// Check credentials and sign a token
		token, user, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			response.FromError(c, err) // Invalid credentials map to 401
			return
		}
		// Return the token in the response
		response.OK(c, AuthResponse{Token: token, User: user})
	}
}
