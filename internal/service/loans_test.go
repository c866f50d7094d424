package service

import (
	"context"
	"testing"

	"digicoop/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEligibility(t *testing.T) {
	goals := func(amounts ...string) []domain.SavingsGoal {
		var out []domain.SavingsGoal
		for _, a := range amounts {
			out = append(out, domain.SavingsGoal{CurrentAmount: dec(a)})
		}
		return out
	}
	cases := []struct {
		name     string
		goals    []domain.SavingsGoal
		loans    []domain.Loan
		max      string
		eligible bool
	}{
		{"no savings", nil, nil, "0", false},
		{"twice savings", goals("3000", "4000"), nil, "14000", true},
		{"exactly the floor is not enough", goals("5000"), nil, "10000", false},
		{"pending loan blocks", goals("50000"), []domain.Loan{{Status: domain.LoanPending}}, "0", false},
		{"active loan blocks", goals("50000"), []domain.Loan{{Status: domain.LoanActive}}, "0", false},
		{"paid loan does not block", goals("50000"), []domain.Loan{{Status: domain.LoanPaid}}, "100000", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := ComputeEligibility(tc.goals, tc.loans)
			assert.True(t, e.MaxLoanAmount.Equal(dec(tc.max)), "max %s", e.MaxLoanAmount)
			assert.Equal(t, tc.eligible, e.Eligible)
			assert.True(t, e.InterestRate.Equal(decimal.NewFromInt(5)))
		})
	}
}

func TestLoanLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewLoanService(env.db, env.ledger)
	m := env.member(t, "ada@example.com", "10000")
	require.NoError(t, env.db.Create(&domain.SavingsGoal{UserID: m.ID, Title: "Base", TargetAmount: dec("100000"), CurrentAmount: dec("30000"), Type: domain.SavingsGoalType}).Error)

	_, err := svc.Apply(ctx, m.ID, LoanApplication{Amount: dec("60000.01"), Purpose: "Stock", DurationMonths: 6})
	assert.ErrorIs(t, err, domain.ErrLoanLimitExceeded)

	loan, err := svc.Apply(ctx, m.ID, LoanApplication{Amount: dec("50000"), Purpose: "Stock", DurationMonths: 6})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanPending, loan.Status)

	// a pending loan blocks a second application
	_, err = svc.Apply(ctx, m.ID, LoanApplication{Amount: dec("1000"), Purpose: "More", DurationMonths: 1})
	assert.ErrorIs(t, err, domain.ErrLoanLimitExceeded)

	approved, receipt, err := svc.Approve(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, approved.Status)
	require.NotNil(t, approved.DueDate)
	assert.True(t, receipt.Wallet.Balance.Equal(dec("60000")))
	assert.True(t, receipt.Transaction.Amount.Equal(dec("50000")))
	assert.Equal(t, domain.TxLoanDisbursement, receipt.Transaction.Type)

	_, _, err = svc.Approve(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrNotPending)
	assert.True(t, env.balance(t, m.ID).Equal(dec("60000")))

	// total due is 52500 at 5%
	_, err = svc.Repay(ctx, m.ID, loan.ID, dec("52500.01"))
	assert.ErrorIs(t, err, domain.ErrOverpayment)

	_, err = svc.Repay(ctx, m.ID, loan.ID, dec("2500"))
	require.NoError(t, err)
	receipt, err = svc.Repay(ctx, m.ID, loan.ID, dec("50000"))
	require.NoError(t, err)
	assert.True(t, receipt.Wallet.Balance.Equal(dec("7500")))
	assert.Equal(t, "1", receipt.Transaction.Metadata["loan_id"])

	var paid domain.Loan
	require.NoError(t, env.db.First(&paid, loan.ID).Error)
	assert.Equal(t, domain.LoanPaid, paid.Status)
	assert.True(t, paid.RepaidAmount.Equal(dec("52500")))

	_, err = svc.Repay(ctx, m.ID, loan.ID, dec("1"))
	assert.ErrorIs(t, err, domain.ErrLoanNotActive)
	assert.Len(t, env.entries(t), 3)
}

func TestLoanRejectAndRepayGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewLoanService(env.db, env.ledger)
	m := env.member(t, "ada@example.com", "100000")
	other := env.member(t, "obi@example.com", "100000")
	loan := domain.Loan{UserID: m.ID, Amount: dec("20000"), InterestRate: dec("5"), DurationMonths: 3, Status: domain.LoanPending}
	require.NoError(t, env.db.Create(&loan).Error)

	_, err := svc.Repay(ctx, m.ID, loan.ID, dec("100"))
	assert.ErrorIs(t, err, domain.ErrLoanNotActive)

	rejected, err := svc.Reject(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanRejected, rejected.Status)

	_, err = svc.Reject(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrNotPending)

	_, _, err = svc.Approve(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	active := domain.Loan{UserID: m.ID, Amount: dec("20000"), InterestRate: dec("5"), DurationMonths: 3, Status: domain.LoanActive}
	require.NoError(t, env.db.Create(&active).Error)
	_, err = svc.Repay(ctx, other.ID, active.ID, dec("100"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.True(t, env.balance(t, m.ID).Equal(dec("100000")))
	assert.Empty(t, env.entries(t))
}

func TestLoanApplyValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewLoanService(env.db, env.ledger)
	m := env.member(t, "ada@example.com", "0")

	_, err := svc.Apply(context.Background(), m.ID, LoanApplication{Amount: dec("100"), DurationMonths: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Apply(context.Background(), m.ID, LoanApplication{Amount: dec("-1"), DurationMonths: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
