package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags what a ledger movement was for
type TransactionType string

const (
	TxDeposit             TransactionType = "DEPOSIT"
	TxWithdrawal          TransactionType = "WITHDRAWAL"
	TxSavingsContribution TransactionType = "SAVINGS_CONTRIBUTION"
	TxLoanDisbursement    TransactionType = "LOAN_DISBURSEMENT"
	TxLoanRepayment       TransactionType = "LOAN_REPAYMENT"
	TxGroupBuy            TransactionType = "GROUP_BUY"
	TxInvestment          TransactionType = "INVESTMENT"
	TxDividend            TransactionType = "DIVIDEND"
)

// IsCredit reports whether the type moves value into a wallet.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxLoanDisbursement, TxDividend:
		return true
	}
	return false
}

// IsDebit reports whether the type moves value out of a wallet.
func (t TransactionType) IsDebit() bool {
	switch t {
	case TxSavingsContribution, TxLoanRepayment, TxGroupBuy, TxInvestment:
		return true
	}
	return false
}

// TransactionStatus of a ledger entry. Only PENDING may change.
type TransactionStatus string

const (
	TxPending TransactionStatus = "PENDING"
	TxSuccess TransactionStatus = "SUCCESS"
	TxFailed  TransactionStatus = "FAILED"
)

// Metadata is free-form key/value data stored alongside an entry
type Metadata map[string]string

// Transaction Model, an immutable ledger entry
type Transaction struct {
	ID          uint              `gorm:"primaryKey" json:"id"`                                // Primary key
	WalletID    uint              `gorm:"index;not null" json:"wallet_id"`                     // Owning wallet
	Type        TransactionType   `gorm:"size:32;index;not null" json:"type"`                  // Movement type
	Amount      decimal.Decimal   `gorm:"type:decimal(20,2);not null" json:"amount"`           // Positive = credit, negative = debit
	Description string            `gorm:"size:255" json:"description"`                         // Human description
	Reference   *string           `gorm:"size:64;uniqueIndex" json:"reference,omitempty"`      // External reference for gateway reconciliation
	Status      TransactionStatus `gorm:"size:16;index;not null" json:"status"`                // PENDING, SUCCESS or FAILED
	Metadata    Metadata          `gorm:"type:text;serializer:json" json:"metadata,omitempty"` // Extra data such as loan_id
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`                             // Creation timestamp
	UpdatedAt   time.Time         `json:"updated_at"`
}
