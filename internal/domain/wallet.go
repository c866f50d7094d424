package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet Model
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                                 // Primary key
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`                  // Owning member, one wallet each
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // Never negative after commit
	Currency  string          `gorm:"size:3;not null" json:"currency"`                      // ISO currency code
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
