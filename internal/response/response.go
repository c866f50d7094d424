// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"errors"
	"net/http"

	"digicoop/internal/domain"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response body
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Page is a paginated listing
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	Cached     bool  `json:"cached"`
}

// NewPage builds a page of items from the total count
func NewPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (int(total) + pageSize - 1) / pageSize,
	}
}

// OK writes a 200 success envelope
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Data: data})
}

// Created writes a 201 success envelope
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Status: "success", Data: data})
}

// Message writes a 200 success envelope carrying only a message
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Message: msg})
}

// Error aborts with an error envelope
func Error(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Envelope{Status: "error", Message: msg})
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrPreconditionFailed),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// FromError aborts with the envelope for err. Unexpected failures never leak their text.
func FromError(c *gin.Context, err error) {
	status := StatusOf(err)
	env := Envelope{Status: "error", Message: err.Error()}
	if reason, ok := domain.ReasonOf(err); ok {
		env.Reason = string(reason)
	} else if errors.Is(err, domain.ErrInsufficientFunds) {
		env.Reason = "INSUFFICIENT_FUNDS"
	}
	if status == http.StatusInternalServerError {
		env.Message = "Internal server error"
		if errors.Is(err, domain.ErrExternalService) {
			env.Message = "External service unavailable"
		} else if errors.Is(err, domain.ErrConflictRetryable) {
			env.Message = "Please retry the request"
		}
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, env)
}
