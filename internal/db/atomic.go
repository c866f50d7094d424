package db

import (
	"context"
	"errors"
	"fmt"

	"digicoop/internal/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MySQL error numbers raised when row locks collide
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// IsRetryable reports whether err came from a lock conflict that a fresh attempt may not hit.
func IsRetryable(err error) bool {
	if errors.Is(err, domain.ErrConflictRetryable) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}
	return false
}

// Atomic runs fn as one transaction. A lock conflict rolls back and re-runs the whole
// unit, up to maxRetries extra times; any other error rolls back and is returned as is.
func Atomic(ctx context.Context, db *gorm.DB, maxRetries int, log *logrus.Entry, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if log != nil {
			log.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"error":   err.Error(),
			}).Warn("Atomic unit conflicted, retrying")
		}
	}
	if errors.Is(err, domain.ErrConflictRetryable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrConflictRetryable, err)
}
