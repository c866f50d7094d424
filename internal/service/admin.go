package service

import (
	"context"
	"fmt"
	"time"

	"digicoop/internal/domain"

	"gorm.io/gorm"
)

// AdminService backs the back-office listings
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// Users lists members with their wallets, oldest first.
func (s *AdminService) Users(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	q := s.db.WithContext(ctx)
	var total int64
	if err := q.Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	users := []domain.User{}
	if err := q.Preload("Wallet").Order("id asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("fetch users: %w", err)
	}
	return users, total, nil
}

// TransactionFilter narrows the back-office transaction list; zero fields are ignored
type TransactionFilter struct {
	MemberID uint
	Type     domain.TransactionType
	Status   domain.TransactionStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// Transactions lists ledger entries across all wallets, newest first.
func (s *AdminService) Transactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.MemberID != 0 {
		q = q.Where("wallet_id IN (?)", s.db.Model(&domain.Wallet{}).Select("id").Where("user_id = ?", f.MemberID))
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", f.To.UTC())
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	txs := []domain.Transaction{}
	if err := q.Order("created_at desc").Order("id desc").
		Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&txs).Error; err != nil {
		return nil, 0, fmt.Errorf("fetch transactions: %w", err)
	}
	return txs, total, nil
}
