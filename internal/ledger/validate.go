package ledger

import (
	"fmt"
	"strings"

	"digicoop/internal/domain"

	"github.com/shopspring/decimal"
)

// CurrencyPrecision is the number of decimal places a wallet amount may carry.
const CurrencyPrecision = 2

// ValidateAmount rejects non-positive amounts and sub-unit fractions.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	if !amount.Equal(amount.Truncate(CurrencyPrecision)) {
		return fmt.Errorf("%w: amount has more than %d decimal places", domain.ErrInvalidAmount, CurrencyPrecision)
	}
	return nil
}

func validateMovement(m Movement, credit bool) error {
	if m.MemberID == 0 {
		return fmt.Errorf("%w: member is required", domain.ErrInvalidInput)
	}
	if err := ValidateAmount(m.Amount); err != nil {
		return err
	}
	if m.Effect == nil {
		return fmt.Errorf("%w: a domain effect is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(m.Description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}
	if credit && !m.Type.IsCredit() {
		return fmt.Errorf("%w: %s is not a credit type", domain.ErrInvalidInput, m.Type)
	}
	if !credit && !m.Type.IsDebit() {
		return fmt.Errorf("%w: %s is not a debit type", domain.ErrInvalidInput, m.Type)
	}
	return nil
}
