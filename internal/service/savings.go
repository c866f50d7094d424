// Package service holds the cooperative's use cases. Each money-moving use case resolves
// its domain rows, checks what it can up front and hands the paired change to the ledger.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"digicoop/internal/domain"
	"digicoop/internal/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SavingsService manages member savings goals
type SavingsService struct {
	db     *gorm.DB
	ledger *ledger.Engine
}

func NewSavingsService(db *gorm.DB, engine *ledger.Engine) *SavingsService {
	return &SavingsService{db: db, ledger: engine}
}

// CreateGoalInput is what a member supplies to open a goal
type CreateGoalInput struct {
	Title        string
	TargetAmount decimal.Decimal
	Type         domain.SavingsType
	DueDate      *time.Time
	Locked       bool
}

func (s *SavingsService) CreateGoal(ctx context.Context, memberID uint, in CreateGoalInput) (*domain.SavingsGoal, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if err := ledger.ValidateAmount(in.TargetAmount); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = domain.SavingsGoalType
	}
	switch in.Type {
	case domain.SavingsCompulsory, domain.SavingsVoluntary, domain.SavingsGoalType:
	default:
		return nil, fmt.Errorf("%w: unknown savings type %q", domain.ErrInvalidInput, in.Type)
	}
	goal := domain.SavingsGoal{
		UserID:        memberID,
		Title:         strings.TrimSpace(in.Title),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		Type:          in.Type,
		DueDate:       in.DueDate,
		Locked:        in.Locked || in.Type == domain.SavingsCompulsory,
	}
	if err := s.db.WithContext(ctx).Create(&goal).Error; err != nil {
		return nil, fmt.Errorf("create savings goal: %w", err)
	}
	return &goal, nil
}

// Goals lists the member's goals, newest first.
func (s *SavingsService) Goals(ctx context.Context, memberID uint) ([]domain.SavingsGoal, error) {
	goals := []domain.SavingsGoal{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", memberID).Order("created_at desc").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	return goals, nil
}

// Contribute moves amount from the wallet into the goal.
func (s *SavingsService) Contribute(ctx context.Context, memberID, goalID uint, amount decimal.Decimal) (*ledger.Receipt, error) {
	return s.ledger.DebitForPurchase(ctx, ledger.Movement{
		MemberID: memberID,
		Amount:   amount,
		Effect: ledger.EffectFunc(func(tx *gorm.DB) error {
			goal, err := lockGoal(tx, memberID, goalID)
			if err != nil {
				return err
			}
			return ledger.Increment(&domain.SavingsGoal{}, goal.ID, "current_amount", amount).Apply(tx)
		}),
		Description: "Savings contribution",
		Type:        domain.TxSavingsContribution,
		Metadata:    domain.Metadata{"goal_id": fmt.Sprint(goalID)},
	})
}

// Withdraw releases amount from an unlocked goal back into the wallet.
func (s *SavingsService) Withdraw(ctx context.Context, memberID, goalID uint, amount decimal.Decimal) (*ledger.Receipt, error) {
	return s.ledger.CreditFromRelease(ctx, ledger.Movement{
		MemberID: memberID,
		Amount:   amount,
		Effect: ledger.EffectFunc(func(tx *gorm.DB) error {
			goal, err := lockGoal(tx, memberID, goalID)
			if err != nil {
				return err
			}
			if goal.Locked {
				return domain.ErrLockedSavings
			}
			if goal.CurrentAmount.LessThan(amount) {
				return domain.ErrInsufficientGoalBalance
			}
			return ledger.Decrement(&domain.SavingsGoal{}, goal.ID, "current_amount", amount, domain.ErrInsufficientGoalBalance).Apply(tx)
		}),
		Description: "Savings withdrawal",
		Type:        domain.TxWithdrawal,
		Metadata:    domain.Metadata{"goal_id": fmt.Sprint(goalID)},
	})
}

// lockGoal loads a goal the member owns; other members' goals read as missing.
func lockGoal(tx *gorm.DB, memberID, goalID uint) (*domain.SavingsGoal, error) {
	var goal domain.SavingsGoal
	if err := ledger.LockRow(tx, &goal, goalID); err != nil {
		return nil, err
	}
	if goal.UserID != memberID {
		return nil, fmt.Errorf("%w: savings goal %d", domain.ErrNotFound, goalID)
	}
	return &goal, nil
}
