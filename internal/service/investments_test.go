package service

import (
	"context"
	"testing"
	"time"

	"digicoop/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestAndPayDividends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewInvestmentService(env.db, env.ledger, env.log)
	ada := env.member(t, "ada@example.com", "50000")
	obi := env.member(t, "obi@example.com", "50000")

	project, err := svc.CreateProject(ctx, CreateProjectInput{
		Title:          "Poultry farm",
		TargetAmount:   dec("1000000"),
		RoiPercentage:  dec("12.5"),
		DurationMonths: 12,
		ClosingDate:    time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.Invest(ctx, ada.ID, project.ID, dec("20000"))
	require.NoError(t, err)
	_, err = svc.Invest(ctx, ada.ID, project.ID, dec("10000"))
	require.NoError(t, err)
	placed, err := svc.Invest(ctx, obi.ID, project.ID, dec("15000"))
	require.NoError(t, err)
	assert.True(t, placed.Receipt.Wallet.Balance.Equal(dec("35000")))

	detail, err := svc.Project(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, detail.RaisedAmount.Equal(dec("45000")))
	assert.EqualValues(t, 2, detail.InvestorsCount)
	assert.Len(t, detail.Investments, 3)

	portfolio, err := svc.Portfolio(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, portfolio, 2)
	assert.Equal(t, "Poultry farm", portfolio[0].Project.Title)

	run, err := svc.PayDividends(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, run.Paid)
	assert.True(t, run.Total.Equal(dec("5625")))
	assert.Equal(t, []uint{ada.ID, ada.ID, obi.ID}, run.MemberIDs)
	assert.True(t, env.balance(t, ada.ID).Equal(dec("23750")))
	assert.True(t, env.balance(t, obi.ID).Equal(dec("36875")))

	again, err := svc.PayDividends(ctx, project.ID)
	require.NoError(t, err)
	assert.Zero(t, again.Paid)
	assert.True(t, env.balance(t, ada.ID).Equal(dec("23750")))
}

func TestInvestWindowClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewInvestmentService(env.db, env.ledger, env.log)
	m := env.member(t, "ada@example.com", "50000")
	project := domain.InvestmentProject{Title: "Closed", TargetAmount: dec("1000"), RoiPercentage: dec("10"), DurationMonths: 1, ClosingDate: time.Now().UTC().Add(-time.Minute)}
	require.NoError(t, env.db.Create(&project).Error)

	_, err := svc.Invest(ctx, m.ID, project.ID, dec("100"))
	assert.ErrorIs(t, err, domain.ErrWindowClosed)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	_, err = svc.Invest(ctx, m.ID, 404, dec("100"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.True(t, env.balance(t, m.ID).Equal(dec("50000")))
	assert.Empty(t, env.entries(t))
}
