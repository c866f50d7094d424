package service

import (
	"io"
	"testing"

	"digicoop/internal/db"
	"digicoop/internal/domain"
	"digicoop/internal/ledger"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db     *gorm.DB
	ledger *ledger.Engine
	log    *logrus.Entry
}

func newTestEnv(t *testing.T) *testEnv {
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

	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)
	return &testEnv{db: gdb, ledger: ledger.NewEngine(gdb, "NGN", ledger.WithLogger(log)), log: log}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// member creates a MEMBER with a wallet holding balance.
func (e *testEnv) member(t *testing.T, email, balance string) domain.User {
	t.Helper()
	u := domain.User{Email: email, FullName: "Test Member", PhoneNumber: "08030000000", PasswordHash: "x", Role: domain.RoleMember, KycStatus: domain.KycPending}
	require.NoError(t, e.db.Create(&u).Error)
	require.NoError(t, e.db.Create(&domain.Wallet{UserID: u.ID, Balance: dec(balance), Currency: "NGN"}).Error)
	return u
}

func (e *testEnv) balance(t *testing.T, memberID uint) decimal.Decimal {
	t.Helper()
	var w domain.Wallet
	require.NoError(t, e.db.Where("user_id = ?", memberID).First(&w).Error)
	return w.Balance
}

func (e *testEnv) entries(t *testing.T) []domain.Transaction {
	t.Helper()
	var txs []domain.Transaction
	require.NoError(t, e.db.Order("id asc").Find(&txs).Error)
	return txs
}
