package domain

import "errors"

// Error kinds surfaced by the ledger and the services built on it.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPreconditionFailed = errors.New("domain precondition failed")
	ErrNotFound           = errors.New("resource not found")
	ErrExternalService    = errors.New("external service failure")
	ErrConflictRetryable  = errors.New("concurrent update conflict")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidInput       = errors.New("invalid input provided")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

// Reason names the rule behind a PreconditionError
type Reason string

const (
	ReasonLockedSavings           Reason = "LOCKED_SAVINGS"
	ReasonInsufficientGoalBalance Reason = "INSUFFICIENT_GOAL_BALANCE"
	ReasonDeadlinePassed          Reason = "DEADLINE_PASSED"
	ReasonWindowClosed            Reason = "WINDOW_CLOSED"
	ReasonAlreadyVoted            Reason = "ALREADY_VOTED"
	ReasonNotPending              Reason = "NOT_PENDING"
	ReasonLoanLimitExceeded       Reason = "LOAN_LIMIT_EXCEEDED"
	ReasonLoanNotActive           Reason = "LOAN_NOT_ACTIVE"
	ReasonOverpayment             Reason = "OVERPAYMENT"
	ReasonInvalidOption           Reason = "INVALID_OPTION"
	ReasonAmountMismatch          Reason = "AMOUNT_MISMATCH"
	ReasonAlreadyPaid             Reason = "ALREADY_PAID"
	ReasonDuplicateIdentity       Reason = "DUPLICATE_IDENTITY"
)

// PreconditionError is a domain rule that blocked an operation.
// errors.Is matches both the exact subkind and ErrPreconditionFailed.
type PreconditionError struct {
	Reason  Reason
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

func (e *PreconditionError) Is(target error) bool {
	if target == ErrPreconditionFailed {
		return true
	}
	t, ok := target.(*PreconditionError)
	return ok && t.Reason == e.Reason
}

// Precondition builds a PreconditionError with a custom message.
func Precondition(reason Reason, message string) error {
	return &PreconditionError{Reason: reason, Message: message}
}

// Precondition subkinds
var (
	ErrLockedSavings           = Precondition(ReasonLockedSavings, "savings goal is locked")
	ErrInsufficientGoalBalance = Precondition(ReasonInsufficientGoalBalance, "insufficient savings goal balance")
	ErrDeadlinePassed          = Precondition(ReasonDeadlinePassed, "order deadline has passed")
	ErrWindowClosed            = Precondition(ReasonWindowClosed, "window has closed")
	ErrAlreadyVoted            = Precondition(ReasonAlreadyVoted, "already voted on this poll")
	ErrNotPending              = Precondition(ReasonNotPending, "record is not pending")
	ErrLoanLimitExceeded       = Precondition(ReasonLoanLimitExceeded, "requested amount exceeds loan limit")
	ErrLoanNotActive           = Precondition(ReasonLoanNotActive, "loan is not active")
	ErrOverpayment             = Precondition(ReasonOverpayment, "repayment exceeds outstanding balance")
	ErrInvalidOption           = Precondition(ReasonInvalidOption, "option does not belong to poll")
	ErrAmountMismatch          = Precondition(ReasonAmountMismatch, "verified amount is below recorded amount")
	ErrAlreadyPaid             = Precondition(ReasonAlreadyPaid, "already paid")
	ErrDuplicateIdentity       = Precondition(ReasonDuplicateIdentity, "identity already linked to an account")
)

// ReasonOf extracts the subkind of a precondition failure, if any.
func ReasonOf(err error) (Reason, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe.Reason, true
	}
	return "", false
}
