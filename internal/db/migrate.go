package db

import (
	"digicoop/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Models lists every table owned by the service, in dependency order
var Models = []any{
	&domain.User{},
	&domain.Wallet{},
	&domain.Transaction{},
	&domain.SavingsGoal{},
	&domain.Loan{},
	&domain.GroupBuyItem{},
	&domain.GroupBuyOrder{},
	&domain.InvestmentProject{},
	&domain.Investment{},
	&domain.Poll{},
	&domain.PollOption{},
	&domain.Vote{},
	&domain.Event{},
	&domain.EventRsvp{},
}

// Open connects to MySQL
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
}

// AutoMigrate creates or updates the schema on an open connection
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := Open(dsn) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := AutoMigrate(db); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
