package ledger

import (
	"errors"

	"digicoop/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Effect is the domain-aggregate half of a ledger movement. It runs inside the
// same transaction as the wallet mutation; returning an error rolls both back.
type Effect interface {
	Apply(tx *gorm.DB) error
}

// EffectFunc adapts a function to Effect
type EffectFunc func(tx *gorm.DB) error

func (f EffectFunc) Apply(tx *gorm.DB) error { return f(tx) }

// Increment adds delta to column on the row with the given id.
func Increment(model any, id uint, column string, delta any) Effect {
	return EffectFunc(func(tx *gorm.DB) error {
		res := tx.Model(model).Where("id = ?", id).
			Update(column, gorm.Expr("? + ?", clause.Column{Name: column}, delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// Decrement subtracts delta from column, failing with guardErr instead of going below zero.
func Decrement(model any, id uint, column string, delta any, guardErr error) Effect {
	return EffectFunc(func(tx *gorm.DB) error {
		res := tx.Model(model).Where("id = ? AND ? >= ?", id, clause.Column{Name: column}, delta).
			Update(column, gorm.Expr("? - ?", clause.Column{Name: column}, delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOr(tx, model, id, guardErr)
		}
		return nil
	})
}

// Transition updates the row only while column still equals from; otherwise it fails with stateErr.
func Transition(model any, id uint, column string, from any, values map[string]any, stateErr error) Effect {
	return EffectFunc(func(tx *gorm.DB) error {
		res := tx.Model(model).Where("id = ? AND ? = ?", id, clause.Column{Name: column}, from).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOr(tx, model, id, stateErr)
		}
		return nil
	})
}

// Create inserts row.
func Create(row any) Effect {
	return EffectFunc(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
}

// Chain applies effects in order, stopping at the first failure.
func Chain(effects ...Effect) Effect {
	return EffectFunc(func(tx *gorm.DB) error {
		for _, e := range effects {
			if err := e.Apply(tx); err != nil {
				return err
			}
		}
		return nil
	})
}

// LockRow loads dest by primary key holding a row lock until the transaction ends.
func LockRow(tx *gorm.DB, dest any, id uint) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// missingOr tells a vanished row apart from one that failed its guard.
func missingOr(tx *gorm.DB, model any, id uint, err error) error {
	var count int64
	if cerr := tx.Model(model).Where("id = ?", id).Count(&count).Error; cerr != nil {
		return cerr
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return err
}
