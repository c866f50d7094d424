package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsType of a goal
type SavingsType string

const (
	SavingsCompulsory SavingsType = "COMPULSORY"
	SavingsVoluntary  SavingsType = "VOLUNTARY"
	SavingsGoalType   SavingsType = "GOAL"
)

// SavingsGoal Model
type SavingsGoal struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`                               // Owning member
	Title         string          `gorm:"size:191;not null" json:"title"`                              // Goal name
	TargetAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"target_amount"`            // Amount the member aims for
	CurrentAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"current_amount"` // Saved so far, moves with the wallet
	Type          SavingsType     `gorm:"size:16;not null" json:"type"`                                // COMPULSORY, VOLUNTARY or GOAL
	DueDate       *time.Time      `json:"due_date,omitempty"`                                          // Optional target date
	Locked        bool            `gorm:"not null;default:false" json:"locked"`                        // Locked goals cannot be withdrawn
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
