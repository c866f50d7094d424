// Package ledger owns wallet balances and the transaction log. Nothing else in the
// service writes either; callers describe the paired domain change as an Effect and
// the engine applies balance, effect and record as one atomic unit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"digicoop/internal/db"
	"digicoop/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Movement describes one wallet debit or credit and the domain change paired with it.
type Movement struct {
	MemberID    uint
	Amount      decimal.Decimal // positive; the engine signs the record
	Effect      Effect
	Description string
	Type        domain.TransactionType
	Metadata    domain.Metadata
}

// Receipt is the committed state after a movement.
type Receipt struct {
	Wallet      domain.Wallet      `json:"wallet"`
	Transaction domain.Transaction `json:"transaction"`
}

// Confirmation is the outcome of a deposit confirmation. Credited is false for the
// idempotent no-op paths: unknown reference or an entry that is no longer pending.
type Confirmation struct {
	Credited    bool                `json:"credited"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
	Wallet      *domain.Wallet      `json:"wallet,omitempty"`
}

// Engine is the ledger
type Engine struct {
	db         *gorm.DB
	currency   string
	maxRetries int
	log        *logrus.Entry
	now        func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's log entry.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) { e.log = log }
}

// WithMaxRetries sets how many extra attempts a conflicting unit gets.
func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a ledger over db; wallets created on demand use currency.
func NewEngine(gdb *gorm.DB, currency string, opts ...Option) *Engine {
	e := &Engine{
		db:         gdb,
		currency:   currency,
		maxRetries: 3,
		log:        logrus.WithField("component", "ledger"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now is the engine's clock, shared with callers that evaluate deadlines.
func (e *Engine) Now() time.Time { return e.now() }

// Atomic runs fn as one retrying unit of work on the engine's store. It is exposed for
// non-monetary check-then-insert operations such as voting; balances stay engine-only.
func (e *Engine) Atomic(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return db.Atomic(ctx, e.db, e.maxRetries, e.log, fn)
}

// DebitForPurchase takes m.Amount from the member's wallet and applies m.Effect.
// Fails with ErrInsufficientFunds, leaving everything untouched, when the locked
// balance is below the amount.
func (e *Engine) DebitForPurchase(ctx context.Context, m Movement) (*Receipt, error) {
	if err := validateMovement(m, false); err != nil {
		return nil, err
	}
	var receipt Receipt
	err := e.Atomic(ctx, func(tx *gorm.DB) error {
		wallet, err := e.lockWallet(tx, m.MemberID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(m.Amount) {
			return fmt.Errorf("%w: balance %s, required %s", domain.ErrInsufficientFunds, wallet.Balance, m.Amount)
		}
		res := tx.Model(&domain.Wallet{}).
			Where("id = ? AND balance >= ?", wallet.ID, m.Amount).
			Update("balance", gorm.Expr("balance - ?", m.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInsufficientFunds
		}
		if err := m.Effect.Apply(tx); err != nil {
			return err
		}
		return e.record(tx, wallet.ID, m, m.Amount.Neg(), &receipt)
	})
	if err != nil {
		e.logFailure("debit", m, err)
		return nil, err
	}
	e.logSuccess("Ledger debit", m, &receipt.Transaction)
	return &receipt, nil
}

// CreditFromRelease applies m.Effect (the release of value held by a domain aggregate)
// and adds m.Amount to the member's wallet.
func (e *Engine) CreditFromRelease(ctx context.Context, m Movement) (*Receipt, error) {
	if err := validateMovement(m, true); err != nil {
		return nil, err
	}
	var receipt Receipt
	err := e.Atomic(ctx, func(tx *gorm.DB) error {
		wallet, err := e.lockWallet(tx, m.MemberID)
		if err != nil {
			return err
		}
		if err := m.Effect.Apply(tx); err != nil {
			return err
		}
		if err := e.addBalance(tx, wallet.ID, m.Amount); err != nil {
			return err
		}
		return e.record(tx, wallet.ID, m, m.Amount, &receipt)
	})
	if err != nil {
		e.logFailure("credit", m, err)
		return nil, err
	}
	e.logSuccess("Ledger credit", m, &receipt.Transaction)
	return &receipt, nil
}

// RecordPendingDeposit writes a PENDING deposit entry for reference without touching the balance.
func (e *Engine) RecordPendingDeposit(ctx context.Context, memberID uint, amount decimal.Decimal, reference string) (*domain.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", domain.ErrInvalidInput)
	}
	var entry domain.Transaction
	err := e.Atomic(ctx, func(tx *gorm.DB) error {
		wallet, err := e.lockWallet(tx, memberID)
		if err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&domain.Transaction{}).Where("reference = ?", reference).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: reference %s already recorded", domain.ErrInvalidInput, reference)
		}
		ref := reference
		entry = domain.Transaction{
			WalletID:    wallet.ID,
			Type:        domain.TxDeposit,
			Amount:      amount,
			Description: "Wallet Deposit",
			Reference:   &ref,
			Status:      domain.TxPending,
			CreatedAt:   e.now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: reference %s already recorded", domain.ErrInvalidInput, reference)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"member_id":      memberID,
		"amount":         amount.String(),
		"reference":      reference,
		"transaction_id": entry.ID,
	}).Info("Pending deposit recorded")
	return &entry, nil
}

// ConfirmPendingDeposit settles the pending deposit for reference. Unknown references
// and entries already settled are successful no-ops, so repeated webhook deliveries
// credit the wallet exactly once. A verified amount below the recorded one leaves the
// entry pending and fails with ErrAmountMismatch.
func (e *Engine) ConfirmPendingDeposit(ctx context.Context, reference string, verifiedAmount decimal.Decimal) (*Confirmation, error) {
	var conf Confirmation
	err := e.Atomic(ctx, func(tx *gorm.DB) error {
		conf = Confirmation{}
		var entry domain.Transaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("reference = ?", reference).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		conf.Transaction = &entry
		if entry.Status != domain.TxPending {
			return nil
		}
		if verifiedAmount.LessThan(entry.Amount) {
			return fmt.Errorf("%w: verified %s, recorded %s", domain.ErrAmountMismatch, verifiedAmount, entry.Amount)
		}
		var wallet domain.Wallet
		if err := LockRow(tx, &wallet, entry.WalletID); err != nil {
			return err
		}
		res := tx.Model(&domain.Transaction{}).
			Where("id = ? AND status = ?", entry.ID, domain.TxPending).
			Update("status", domain.TxSuccess)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := e.addBalance(tx, wallet.ID, entry.Amount); err != nil {
			return err
		}
		entry.Status = domain.TxSuccess
		if err := tx.First(&wallet, wallet.ID).Error; err != nil {
			return err
		}
		conf.Credited = true
		conf.Wallet = &wallet
		return nil
	})
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"reference": reference,
			"amount":    verifiedAmount.String(),
			"error":     err.Error(),
		}).Warn("Deposit confirmation failed")
		return nil, err
	}
	if conf.Credited {
		e.log.WithFields(logrus.Fields{
			"member_id":      conf.Wallet.UserID,
			"amount":         conf.Transaction.Amount.String(),
			"type":           domain.TxDeposit,
			"reference":      reference,
			"transaction_id": conf.Transaction.ID,
		}).Info("Deposit confirmed")
	}
	return &conf, nil
}

// FailPendingDeposit marks the pending entry for reference FAILED. It reports whether
// anything changed; settled or unknown references are no-ops.
func (e *Engine) FailPendingDeposit(ctx context.Context, reference string) (bool, error) {
	var changed bool
	err := e.Atomic(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&domain.Transaction{}).
			Where("reference = ? AND status = ?", reference, domain.TxPending).
			Update("status", domain.TxFailed)
		changed = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, err
	}
	if changed {
		e.log.WithField("reference", reference).Info("Pending deposit failed")
	}
	return changed, nil
}

// PendingDeposit looks up the entry recorded for reference.
func (e *Engine) PendingDeposit(ctx context.Context, reference string) (*domain.Transaction, error) {
	var entry domain.Transaction
	err := e.db.WithContext(ctx).Where("reference = ?", reference).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Wallet returns the member's wallet, creating an empty one on first access.
func (e *Engine) Wallet(ctx context.Context, memberID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	q := e.db.WithContext(ctx)
	err := q.Where(domain.Wallet{UserID: memberID}).
		Attrs(domain.Wallet{Currency: e.currency, Balance: decimal.Zero}).
		FirstOrCreate(&wallet).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a creation race; the other writer's row is there now
		err = q.Where("user_id = ?", memberID).First(&wallet).Error
	}
	if err != nil {
		return nil, fmt.Errorf("load wallet for member %d: %w", memberID, err)
	}
	return &wallet, nil
}

// History returns the member's entries newest first along with the total count.
func (e *Engine) History(ctx context.Context, memberID uint, page, pageSize int) ([]domain.Transaction, int64, error) {
	wallet, err := e.Wallet(ctx, memberID)
	if err != nil {
		return nil, 0, err
	}
	q := e.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("wallet_id = ?", wallet.ID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	entries := []domain.Transaction{}
	if err := q.Order("created_at desc").Order("id desc").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("fetch transactions: %w", err)
	}
	return entries, total, nil
}

// lockWallet loads the member's wallet under a row lock, creating it when absent.
func (e *Engine) lockWallet(tx *gorm.DB, memberID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", memberID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	wallet = domain.Wallet{UserID: memberID, Balance: decimal.Zero, Currency: e.currency}
	if err := tx.Create(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrConflictRetryable
		}
		return nil, err
	}
	return &wallet, nil
}

func (e *Engine) addBalance(tx *gorm.DB, walletID uint, amount decimal.Decimal) error {
	res := tx.Model(&domain.Wallet{}).Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// record appends the entry and reloads the wallet into receipt.
func (e *Engine) record(tx *gorm.DB, walletID uint, m Movement, signed decimal.Decimal, receipt *Receipt) error {
	entry := domain.Transaction{
		WalletID:    walletID,
		Type:        m.Type,
		Amount:      signed,
		Description: m.Description,
		Status:      domain.TxSuccess,
		Metadata:    m.Metadata,
		CreatedAt:   e.now(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	var wallet domain.Wallet
	if err := tx.First(&wallet, walletID).Error; err != nil {
		return err
	}
	receipt.Wallet = wallet
	receipt.Transaction = entry
	return nil
}

func (e *Engine) logSuccess(msg string, m Movement, entry *domain.Transaction) {
	e.log.WithFields(logrus.Fields{
		"member_id":      m.MemberID,
		"amount":         m.Amount.String(),
		"type":           m.Type,
		"transaction_id": entry.ID,
		"timestamp":      entry.CreatedAt.Format(time.RFC3339),
	}).Info(msg)
}

func (e *Engine) logFailure(op string, m Movement, err error) {
	entry := e.log.WithFields(logrus.Fields{
		"op":        op,
		"member_id": m.MemberID,
		"amount":    m.Amount.String(),
		"type":      m.Type,
		"error":     err.Error(),
	})
	if IsRejection(err) {
		entry.Warn("Ledger operation rejected")
		return
	}
	entry.Error("Ledger operation failed")
}

// IsRejection reports whether err is a domain refusal rather than a fault.
func IsRejection(err error) bool {
	return errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrPreconditionFailed) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrInvalidInput)
}
