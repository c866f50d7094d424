package ledger

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"digicoop/internal/db"
	"digicoop/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(gdb))

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewEngine(gdb, "NGN", WithLogger(logrus.NewEntry(log))), gdb
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedWallet(t *testing.T, gdb *gorm.DB, member uint, balance string) domain.Wallet {
	t.Helper()
	w := domain.Wallet{UserID: member, Balance: dec(balance), Currency: "NGN"}
	require.NoError(t, gdb.Create(&w).Error)
	return w
}

func balanceOf(t *testing.T, gdb *gorm.DB, member uint) decimal.Decimal {
	t.Helper()
	var w domain.Wallet
	require.NoError(t, gdb.Where("user_id = ?", member).First(&w).Error)
	return w.Balance
}

func countEntries(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&domain.Transaction{}).Count(&n).Error)
	return n
}

func TestDebitForPurchaseGroupBuyOrder(t *testing.T) {
	engine, gdb := newTestEngine(t)
	ctx := context.Background()
	seedWallet(t, gdb, 1, "100000")
	item := domain.GroupBuyItem{Name: "Rice", PricePerUnit: dec("5000"), MinOrderQuantity: 10, Deadline: time.Now().UTC().Add(time.Hour)}
	require.NoError(t, gdb.Create(&item).Error)

	order := &domain.GroupBuyOrder{ItemID: item.ID, UserID: 1, Quantity: 5, TotalAmount: dec("25000")}
	receipt, err := engine.DebitForPurchase(ctx, Movement{
		MemberID:    1,
		Amount:      dec("25000"),
		Effect:      Chain(Increment(&domain.GroupBuyItem{}, item.ID, "current_order_quantity", 5), Create(order)),
		Description: "Group buy: Rice",
		Type:        domain.TxGroupBuy,
	})
	require.NoError(t, err)

	assert.True(t, receipt.Wallet.Balance.Equal(dec("75000")))
	assert.True(t, receipt.Transaction.Amount.Equal(dec("-25000")))
	assert.Equal(t, domain.TxSuccess, receipt.Transaction.Status)
	assert.True(t, balanceOf(t, gdb, 1).Equal(dec("75000")))
	assert.EqualValues(t, 1, countEntries(t, gdb))

	var reloaded domain.GroupBuyItem
	require.NoError(t, gdb.First(&reloaded, item.ID).Error)
	assert.Equal(t, 5, reloaded.CurrentOrderQuantity)
	assert.NotZero(t, order.ID)
}

func TestDebitForPurchaseInsufficientFunds(t *testing.T) {
	engine, gdb := newTestEngine(t)
	seedWallet(t, gdb, 1, "100")

	applied := false
	_, err := engine.DebitForPurchase(context.Background(), Movement{
		MemberID:    1,
		Amount:      dec("100.01"),
		Effect:      EffectFunc(func(tx *gorm.DB) error { applied = true; return nil }),
		Description: "Investment",
		Type:        domain.TxInvestment,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.False(t, applied)
	assert.True(t, balanceOf(t, gdb, 1).Equal(dec("100")))
	assert.Zero(t, countEntries(t, gdb))
}

func TestDebitForPurchaseCreatesMissingWallet(t *testing.T) {
	engine, gdb := newTestEngine(t)

	_, err := engine.DebitForPurchase(context.Background(), Movement{
		MemberID:    9,
		Amount:      dec("1"),
		Effect:      EffectFunc(func(tx *gorm.DB) error { return nil }),
		Description: "Savings",
		Type:        domain.TxSavingsContribution,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// the wallet created inside the failed unit rolled back with it
	var wallets int64
	require.NoError(t, gdb.Model(&domain.Wallet{}).Where("user_id = ?", 9).Count(&wallets).Error)
	assert.Zero(t, wallets)
	assert.Zero(t, countEntries(t, gdb))

	w, err := engine.Wallet(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, "NGN", w.Currency)
}

func TestEffectFailureRollsBackBalance(t *testing.T) {
	engine, gdb := newTestEngine(t)
	seedWallet(t, gdb, 1, "5000")
	boom := errors.New("aggregate write failed")

	_, err := engine.DebitForPurchase(context.Background(), Movement{
		MemberID:    1,
		Amount:      dec("1000"),
		Effect:      EffectFunc(func(tx *gorm.DB) error { return boom }),
		Description: "Group buy",
		Type:        domain.TxGroupBuy,
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, balanceOf(t, gdb, 1).Equal(dec("5000")))
	assert.Zero(t, countEntries(t, gdb))

	_, err = engine.CreditFromRelease(context.Background(), Movement{
		MemberID:    1,
		Amount:      dec("1000"),
		Effect:      EffectFunc(func(tx *gorm.DB) error { return boom }),
		Description: "Withdrawal",
		Type:        domain.TxWithdrawal,
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, balanceOf(t, gdb, 1).Equal(dec("5000")))
	assert.Zero(t, countEntries(t, gdb))
}

func TestCreditFromReleaseLockedSavings(t *testing.T) {
	engine, gdb := newTestEngine(t)
	seedWallet(t, gdb, 1, "0")
	goal := domain.SavingsGoal{UserID: 1, Title: "School fees", TargetAmount: dec("100000"), CurrentAmount: dec("50000"), Type: domain.SavingsGoalType, Locked: true}
	require.NoError(t, gdb.Create(&goal).Error)

	guard := EffectFunc(func(tx *gorm.DB) error {
		var g domain.SavingsGoal
		if err := LockRow(tx, &g, goal.ID); err != nil {
			return err
		}
		if g.Locked {
			return domain.ErrLockedSavings
		}
		return Decrement(&domain.SavingsGoal{}, g.ID, "current_amount", dec("10000"), domain.ErrInsufficientGoalBalance).Apply(tx)
	})
	_, err := engine.CreditFromRelease(context.Background(), Movement{
		MemberID: 1, Amount: dec("10000"), Effect: guard, Description: "Savings withdrawal", Type: domain.TxWithdrawal,
	})
	assert.ErrorIs(t, err, domain.ErrLockedSavings)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	assert.True(t, balanceOf(t, gdb, 1).IsZero())
	var reloaded domain.SavingsGoal
	require.NoError(t, gdb.First(&reloaded, goal.ID).Error)
	assert.True(t, reloaded.CurrentAmount.Equal(dec("50000")))
	assert.Zero(t, countEntries(t, gdb))
}

func TestCreditFromReleaseLoanDisbursement(t *testing.T) {
	engine, gdb := newTestEngine(t)
	seedWallet(t, gdb, 1, "10000")
	loan := domain.Loan{UserID: 1, Amount: dec("50000"), Purpose: "Stock", InterestRate: dec("5"), DurationMonths: 6, Status: domain.LoanPending}
	require.NoError(t, gdb.Create(&loan).Error)

	now := time.Now().UTC()
	receipt, err := engine.CreditFromRelease(context.Background(), Movement{
		MemberID: 1,
		Amount:   loan.Amount,
		Effect: Transition(&domain.Loan{}, loan.ID, "status", domain.LoanPending, map[string]any{
			"status":       domain.LoanActive,
			"disbursed_at": now,
			"due_date":     now.AddDate(0, loan.DurationMonths, 0),
		}, domain.ErrNotPending),
		Description: "Loan disbursement",
		Type:        domain.TxLoanDisbursement,
		Metadata:    domain.Metadata{"loan_id": "1"},
	})
	require.NoError(t, err)
	assert.True(t, receipt.Wallet.Balance.Equal(dec("60000")))
	assert.True(t, receipt.Transaction.Amount.Equal(dec("50000")))
	assert.Equal(t, domain.TxLoanDisbursement, receipt.Transaction.Type)

	var reloaded domain.Loan
	require.NoError(t, gdb.First(&reloaded, loan.ID).Error)
	assert.Equal(t, domain.LoanActive, reloaded.Status)

	var entry domain.Transaction
	require.NoError(t, gdb.First(&entry, receipt.Transaction.ID).Error)
	assert.Equal(t, "1", entry.Metadata["loan_id"])

	// approving twice must not disburse twice
	_, err = engine.CreditFromRelease(context.Background(), Movement{
		MemberID:    1,
		Amount:      loan.Amount,
		Effect:      Transition(&domain.Loan{}, loan.ID, "status", domain.LoanPending, map[string]any{"status": domain.LoanActive}, domain.ErrNotPending),
		Description: "Loan disbursement",
		Type:        domain.TxLoanDisbursement,
	})
	assert.ErrorIs(t, err, domain.ErrNotPending)
	assert.True(t, balanceOf(t, gdb, 1).Equal(dec("60000")))
	assert.EqualValues(t, 1, countEntries(t, gdb))
}

func TestConfirmPendingDepositIsIdempotent(t *testing.T) {
	engine, gdb := newTestEngine(t)
	ctx := context.Background()
	seedWallet(t, gdb, 1, "0")

	entry, err := engine.RecordPendingDeposit(ctx, 1, dec("20000"), "TX-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TxPending, entry.Status)
	assert.True(t, balanceOf(t, gdb, 1).IsZero())

	first, err := engine.ConfirmPendingDeposit(ctx, "TX-1", dec("20000"))
	require.NoError(t, err)
	assert.True(t, first.Credited)
	assert.True(t, first.Wallet.Balance.Equal(dec("20000")))

	second, err := engine.ConfirmPendingDeposit(ctx, "TX-1", dec("20000"))
	require.NoError(t, err)
	assert.False(t, second.Credited)
	assert.Equal(t, domain.TxSuccess, second.Transaction.Status)

	assert.True(t, balanceOf(t, gdb, 1).Equal(dec("20000")))
	assert.EqualValues(t, 1, countEntries(t, gdb))
}

func TestConfirmPendingDepositEdgeCases(t *testing.T) {
	engine, gdb := newTestEngine(t)
	ctx := context.Background()
	seedWallet(t, gdb, 1, "0")

	t.Run("unknown reference is a no-op", func(t *testing.T) {
		conf, err := engine.ConfirmPendingDeposit(ctx, "TX-missing", dec("10"))
		require.NoError(t, err)
		assert.False(t, conf.Credited)
		assert.Nil(t, conf.Transaction)
	})

	t.Run("short verified amount keeps entry pending", func(t *testing.T) {
		_, err := engine.RecordPendingDeposit(ctx, 1, dec("500"), "TX-short")
		require.NoError(t, err)
		_, err = engine.ConfirmPendingDeposit(ctx, "TX-short", dec("499.99"))
		assert.ErrorIs(t, err, domain.ErrAmountMismatch)

		entry, err := engine.PendingDeposit(ctx, "TX-short")
		require.NoError(t, err)
		assert.Equal(t, domain.TxPending, entry.Status)
		assert.True(t, balanceOf(t, gdb, 1).IsZero())
	})

	t.Run("overpayment credits the recorded amount", func(t *testing.T) {
		_, err := engine.RecordPendingDeposit(ctx, 1, dec("300"), "TX-over")
		require.NoError(t, err)
		conf, err := engine.ConfirmPendingDeposit(ctx, "TX-over", dec("350"))
		require.NoError(t, err)
		assert.True(t, conf.Credited)
		assert.True(t, balanceOf(t, gdb, 1).Equal(dec("300")))
	})

	t.Run("failed entry is never credited", func(t *testing.T) {
		_, err := engine.RecordPendingDeposit(ctx, 1, dec("1000"), "TX-fail")
		require.NoError(t, err)
		changed, err := engine.FailPendingDeposit(ctx, "TX-fail")
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = engine.FailPendingDeposit(ctx, "TX-fail")
		require.NoError(t, err)
		assert.False(t, changed)

		conf, err := engine.ConfirmPendingDeposit(ctx, "TX-fail", dec("1000"))
		require.NoError(t, err)
		assert.False(t, conf.Credited)
		assert.Equal(t, domain.TxFailed, conf.Transaction.Status)
		assert.True(t, balanceOf(t, gdb, 1).Equal(dec("300")))
	})

	t.Run("duplicate reference is rejected", func(t *testing.T) {
		_, err := engine.RecordPendingDeposit(ctx, 1, dec("10"), "TX-over")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	engine, gdb := newTestEngine(t)
	seedWallet(t, gdb, 1, "10000")

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.DebitForPurchase(context.Background(), Movement{
				MemberID:    1,
				Amount:      dec("1500"),
				Effect:      EffectFunc(func(tx *gorm.DB) error { return nil }),
				Description: "Investment",
				Type:        domain.TxInvestment,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, domain.ErrInsufficientFunds) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, succeeded)
	assert.Equal(t, workers-6, rejected)
	assert.True(t, balanceOf(t, gdb, 1).Equal(dec("1000")))
	assert.EqualValues(t, 6, countEntries(t, gdb))
}

func TestMovementValidation(t *testing.T) {
	engine, _ := newTestEngine(t)
	noop := EffectFunc(func(tx *gorm.DB) error { return nil })

	cases := []struct {
		name string
		m    Movement
		want error
	}{
		{"zero amount", Movement{MemberID: 1, Amount: decimal.Zero, Effect: noop, Description: "x", Type: domain.TxInvestment}, domain.ErrInvalidAmount},
		{"negative amount", Movement{MemberID: 1, Amount: dec("-5"), Effect: noop, Description: "x", Type: domain.TxInvestment}, domain.ErrInvalidAmount},
		{"sub-unit amount", Movement{MemberID: 1, Amount: dec("1.005"), Effect: noop, Description: "x", Type: domain.TxInvestment}, domain.ErrInvalidAmount},
		{"missing member", Movement{Amount: dec("1"), Effect: noop, Description: "x", Type: domain.TxInvestment}, domain.ErrInvalidInput},
		{"missing effect", Movement{MemberID: 1, Amount: dec("1"), Description: "x", Type: domain.TxInvestment}, domain.ErrInvalidInput},
		{"blank description", Movement{MemberID: 1, Amount: dec("1"), Effect: noop, Description: "  ", Type: domain.TxInvestment}, domain.ErrInvalidInput},
		{"credit type on debit", Movement{MemberID: 1, Amount: dec("1"), Effect: noop, Description: "x", Type: domain.TxDividend}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.DebitForPurchase(context.Background(), tc.m)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := engine.CreditFromRelease(context.Background(), Movement{
		MemberID: 1, Amount: dec("1"), Effect: noop, Description: "x", Type: domain.TxGroupBuy,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistoryNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	engine, gdb := newTestEngine(t)
	engine.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }
	seedWallet(t, gdb, 1, "1000")
	noop := EffectFunc(func(tx *gorm.DB) error { return nil })

	for _, amt := range []string{"100", "200", "300"} {
		_, err := engine.DebitForPurchase(context.Background(), Movement{
			MemberID: 1, Amount: dec(amt), Effect: noop, Description: "Savings", Type: domain.TxSavingsContribution,
		})
		require.NoError(t, err)
	}

	entries, total, err := engine.History(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Amount.Equal(dec("-300")))
	assert.True(t, entries[1].Amount.Equal(dec("-200")))

	entries, _, err = engine.History(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Amount.Equal(dec("-100")))
}
