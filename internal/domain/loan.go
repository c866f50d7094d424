package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus of a loan
type LoanStatus string

const (
	LoanPending   LoanStatus = "PENDING"
	LoanApproved  LoanStatus = "APPROVED"
	LoanRejected  LoanStatus = "REJECTED"
	LoanActive    LoanStatus = "ACTIVE"
	LoanPaid      LoanStatus = "PAID"
	LoanDefaulted LoanStatus = "DEFAULTED"
)

// Loan Model
type Loan struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"index;not null" json:"user_id"`                              // Borrowing member
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`                  // Principal
	Purpose        string          `gorm:"size:255" json:"purpose"`                                    // Member-supplied purpose
	InterestRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interest_rate"`            // Flat percent on principal
	DurationMonths int             `gorm:"not null" json:"duration_months"`                            // Repayment window
	Status         LoanStatus      `gorm:"size:16;index;not null" json:"status"`                       // Lifecycle state
	RepaidAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"repaid_amount"` // Running repayment total
	DisbursedAt    *time.Time      `json:"disbursed_at,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TotalDue is the principal plus flat interest.
func (l Loan) TotalDue() decimal.Decimal {
	interest := l.Amount.Mul(l.InterestRate).Div(decimal.NewFromInt(100))
	return l.Amount.Add(interest).Round(2)
}

// Outstanding is what is left to repay.
func (l Loan) Outstanding() decimal.Decimal {
	left := l.TotalDue().Sub(l.RepaidAmount)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}
