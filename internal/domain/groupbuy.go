package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupBuyItem Model, a pooled purchase open until its deadline
type GroupBuyItem struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	Name                 string          `gorm:"size:191;not null" json:"name"`
	Description          string          `gorm:"type:text" json:"description"`
	ImageURL             string          `gorm:"size:255" json:"image_url"`
	PricePerUnit         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price_per_unit"`
	MinOrderQuantity     int             `gorm:"not null" json:"min_order_quantity"`               // Quantity needed for the pool to close
	CurrentOrderQuantity int             `gorm:"not null;default:0" json:"current_order_quantity"` // Moves with member wallets
	Deadline             time.Time       `gorm:"not null" json:"deadline"`
	CreatedAt            time.Time       `json:"created_at"`
}

// GroupBuyOrder Model, one member order against an item
type GroupBuyOrder struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ItemID      uint            `gorm:"index;not null" json:"item_id"`
	UserID      uint            `gorm:"index;not null" json:"user_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_amount"`
	Item        *GroupBuyItem   `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
