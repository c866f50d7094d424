package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"digicoop/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInsufficientFunds, http.StatusBadRequest},
		{fmt.Errorf("withdraw: %w", domain.ErrLockedSavings), http.StatusBadRequest},
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrExternalService, http.StatusInternalServerError},
		{domain.ErrConflictRetryable, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

func TestFromErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromError(c, domain.ErrLockedSavings)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "LOCKED_SAVINGS", env.Reason)
	assert.Equal(t, "savings goal is locked", env.Message)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	FromError(c, fmt.Errorf("debit: %w", domain.ErrInsufficientFunds))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env = Envelope{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "INSUFFICIENT_FUNDS", env.Reason)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	FromError(c, errors.New("dial tcp 10.0.0.3:3306: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "Internal server error", env.Message)
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2}, 2, 2, 5)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 2, p.Page)
}
