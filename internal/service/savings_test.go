package service

import (
	"context"
	"testing"

	"digicoop/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavingsContributeAndWithdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewSavingsService(env.db, env.ledger)
	m := env.member(t, "ada@example.com", "30000")

	goal, err := svc.CreateGoal(ctx, m.ID, CreateGoalInput{Title: "Rent", TargetAmount: dec("100000")})
	require.NoError(t, err)
	assert.Equal(t, domain.SavingsGoalType, goal.Type)

	receipt, err := svc.Contribute(ctx, m.ID, goal.ID, dec("20000"))
	require.NoError(t, err)
	assert.True(t, receipt.Wallet.Balance.Equal(dec("10000")))
	assert.Equal(t, domain.TxSavingsContribution, receipt.Transaction.Type)

	receipt, err = svc.Withdraw(ctx, m.ID, goal.ID, dec("5000"))
	require.NoError(t, err)
	assert.True(t, receipt.Wallet.Balance.Equal(dec("15000")))
	assert.True(t, receipt.Transaction.Amount.Equal(dec("5000")))

	goals, err := svc.Goals(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.True(t, goals[0].CurrentAmount.Equal(dec("15000")))
}

func TestSavingsWithdrawLockedGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewSavingsService(env.db, env.ledger)
	m := env.member(t, "ada@example.com", "0")
	goal := domain.SavingsGoal{UserID: m.ID, Title: "Pension", TargetAmount: dec("500000"), CurrentAmount: dec("50000"), Type: domain.SavingsCompulsory, Locked: true}
	require.NoError(t, env.db.Create(&goal).Error)

	_, err := svc.Withdraw(ctx, m.ID, goal.ID, dec("10000"))
	assert.ErrorIs(t, err, domain.ErrLockedSavings)

	assert.True(t, env.balance(t, m.ID).IsZero())
	var reloaded domain.SavingsGoal
	require.NoError(t, env.db.First(&reloaded, goal.ID).Error)
	assert.True(t, reloaded.CurrentAmount.Equal(dec("50000")))
	assert.Empty(t, env.entries(t))
}

func TestCompulsoryGoalIsAlwaysLocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewSavingsService(env.db, env.ledger)
	m := env.member(t, "ada@example.com", "20000")

	goal, err := svc.CreateGoal(ctx, m.ID, CreateGoalInput{Title: "Pension", TargetAmount: dec("500000"), Type: domain.SavingsCompulsory})
	require.NoError(t, err)
	assert.True(t, goal.Locked)

	_, err = svc.Contribute(ctx, m.ID, goal.ID, dec("10000"))
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, m.ID, goal.ID, dec("10000"))
	assert.ErrorIs(t, err, domain.ErrLockedSavings)
	assert.True(t, env.balance(t, m.ID).Equal(dec("10000")))

	voluntary, err := svc.CreateGoal(ctx, m.ID, CreateGoalInput{Title: "Car", TargetAmount: dec("900000"), Type: domain.SavingsVoluntary})
	require.NoError(t, err)
	assert.False(t, voluntary.Locked)
}

func TestSavingsWithdrawRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewSavingsService(env.db, env.ledger)
	owner := env.member(t, "ada@example.com", "0")
	other := env.member(t, "obi@example.com", "0")
	goal := domain.SavingsGoal{UserID: owner.ID, Title: "Car", TargetAmount: dec("900000"), CurrentAmount: dec("1000"), Type: domain.SavingsVoluntary}
	require.NoError(t, env.db.Create(&goal).Error)

	_, err := svc.Withdraw(ctx, owner.ID, goal.ID, dec("1000.01"))
	assert.ErrorIs(t, err, domain.ErrInsufficientGoalBalance)

	_, err = svc.Withdraw(ctx, other.ID, goal.ID, dec("10"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Contribute(ctx, owner.ID, goal.ID, dec("10"))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Empty(t, env.entries(t))
}

func TestCreateGoalValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSavingsService(env.db, env.ledger)

	_, err := svc.CreateGoal(context.Background(), 1, CreateGoalInput{Title: " ", TargetAmount: dec("10")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.CreateGoal(context.Background(), 1, CreateGoalInput{Title: "x", TargetAmount: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = svc.CreateGoal(context.Background(), 1, CreateGoalInput{Title: "x", TargetAmount: dec("10"), Type: "WEEKLY"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
