package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"digicoop/internal/domain"
	"digicoop/internal/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GroupBuyService runs pooled purchases
type GroupBuyService struct {
	db     *gorm.DB
	ledger *ledger.Engine
}

func NewGroupBuyService(db *gorm.DB, engine *ledger.Engine) *GroupBuyService {
	return &GroupBuyService{db: db, ledger: engine}
}

// CreateItemInput describes a new pooled purchase
type CreateItemInput struct {
	Name             string
	Description      string
	ImageURL         string
	PricePerUnit     decimal.Decimal
	MinOrderQuantity int
	Deadline         time.Time
}

func (s *GroupBuyService) CreateItem(ctx context.Context, in CreateItemInput) (*domain.GroupBuyItem, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := ledger.ValidateAmount(in.PricePerUnit); err != nil {
		return nil, err
	}
	if in.MinOrderQuantity <= 0 {
		return nil, fmt.Errorf("%w: minimum order quantity must be positive", domain.ErrInvalidInput)
	}
	if !in.Deadline.After(s.ledger.Now()) {
		return nil, fmt.Errorf("%w: deadline must be in the future", domain.ErrInvalidInput)
	}
	item := domain.GroupBuyItem{
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		ImageURL:         in.ImageURL,
		PricePerUnit:     in.PricePerUnit,
		MinOrderQuantity: in.MinOrderQuantity,
		Deadline:         in.Deadline.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create group buy item: %w", err)
	}
	return &item, nil
}

// Items lists the items still taking orders, soonest deadline first.
func (s *GroupBuyService) Items(ctx context.Context) ([]domain.GroupBuyItem, error) {
	items := []domain.GroupBuyItem{}
	if err := s.db.WithContext(ctx).Where("deadline >= ?", s.ledger.Now().UTC()).
		Order("deadline asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list group buy items: %w", err)
	}
	return items, nil
}

// ItemOrder is one order on an item with the name of the member who placed it
type ItemOrder struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"user_id"`
	FullName    string          `json:"full_name"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ItemDetail is an item and every order placed against it
type ItemDetail struct {
	domain.GroupBuyItem
	Orders []ItemOrder `json:"orders"`
}

// Item returns the item with its orders, oldest first. Expired items are still visible here.
func (s *GroupBuyService) Item(ctx context.Context, itemID uint) (*ItemDetail, error) {
	q := s.db.WithContext(ctx)
	out := ItemDetail{Orders: []ItemOrder{}}
	err := q.First(&out.GroupBuyItem, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: group buy item %d", domain.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	err = q.Model(&domain.GroupBuyOrder{}).
		Select("group_buy_orders.id, group_buy_orders.user_id, users.full_name, group_buy_orders.quantity, " +
			"group_buy_orders.total_amount, group_buy_orders.created_at").
		Joins("JOIN users ON users.id = group_buy_orders.user_id").
		Where("group_buy_orders.item_id = ?", itemID).
		Order("group_buy_orders.id asc").
		Scan(&out.Orders).Error
	if err != nil {
		return nil, fmt.Errorf("list item orders: %w", err)
	}
	return &out, nil
}

// Orders lists the member's orders with their items.
func (s *GroupBuyService) Orders(ctx context.Context, memberID uint) ([]domain.GroupBuyOrder, error) {
	orders := []domain.GroupBuyOrder{}
	if err := s.db.WithContext(ctx).Preload("Item").Where("user_id = ?", memberID).
		Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list group buy orders: %w", err)
	}
	return orders, nil
}

// OrderReceipt is a placed order and the ledger movement that paid for it
type OrderReceipt struct {
	Order   domain.GroupBuyOrder `json:"order"`
	Receipt *ledger.Receipt      `json:"receipt"`
}

// Order buys quantity units of an open item from the member's wallet.
func (s *GroupBuyService) Order(ctx context.Context, memberID, itemID uint, quantity int) (*OrderReceipt, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	var item domain.GroupBuyItem
	err := s.db.WithContext(ctx).First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: group buy item %d", domain.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	if s.ledger.Now().After(item.Deadline) {
		return nil, domain.ErrDeadlinePassed
	}

	total := item.PricePerUnit.Mul(decimal.NewFromInt(int64(quantity)))
	order := domain.GroupBuyOrder{ItemID: item.ID, UserID: memberID, Quantity: quantity, TotalAmount: total}
	receipt, err := s.ledger.DebitForPurchase(ctx, ledger.Movement{
		MemberID: memberID,
		Amount:   total,
		Effect: ledger.EffectFunc(func(tx *gorm.DB) error {
			var locked domain.GroupBuyItem
			if err := ledger.LockRow(tx, &locked, item.ID); err != nil {
				return err
			}
			if s.ledger.Now().After(locked.Deadline) {
				return domain.ErrDeadlinePassed
			}
			order.ID = 0
			return ledger.Chain(
				ledger.Increment(&domain.GroupBuyItem{}, item.ID, "current_order_quantity", quantity),
				ledger.Create(&order),
			).Apply(tx)
		}),
		Description: "Group buy: " + item.Name,
		Type:        domain.TxGroupBuy,
		Metadata:    domain.Metadata{"item_id": fmt.Sprint(item.ID), "quantity": fmt.Sprint(quantity)},
	})
	if err != nil {
		return nil, err
	}
	return &OrderReceipt{Order: order, Receipt: receipt}, nil
}
