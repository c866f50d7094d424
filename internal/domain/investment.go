package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentProject Model
type InvestmentProject struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Title          string          `gorm:"size:191;not null" json:"title"`
	Description    string          `gorm:"type:text" json:"description"`
	Pitch          string          `gorm:"type:text" json:"pitch,omitempty"`
	TargetAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"target_amount"`
	RaisedAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"raised_amount"` // Moves with member wallets
	RoiPercentage  decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"roi_percentage"`
	DurationMonths int             `gorm:"not null" json:"duration_months"`
	ClosingDate    time.Time       `gorm:"not null" json:"closing_date"` // Investments rejected after this
	Investments    []Investment    `gorm:"foreignKey:ProjectID" json:"investments,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Investment Model, one member stake in a project
type Investment struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	UserID         uint               `gorm:"index;not null" json:"user_id"`
	ProjectID      uint               `gorm:"index;not null" json:"project_id"`
	Amount         decimal.Decimal    `gorm:"type:decimal(20,2);not null" json:"amount"`
	DividendPaidAt *time.Time         `json:"dividend_paid_at,omitempty"`
	Project        *InvestmentProject `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}
