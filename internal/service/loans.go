package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"digicoop/internal/domain"
	"digicoop/internal/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Loan policy
var (
	LoanSavingsMultiple  = decimal.NewFromInt(2)
	MinEligibleLoan      = decimal.NewFromInt(10000)
	DefaultInterestRate  = decimal.NewFromInt(5) // percent per month
	MaxLoanDurationMonth = 36
)

// Eligibility is a member's current borrowing position
type Eligibility struct {
	Eligible      bool            `json:"eligible"`
	MaxLoanAmount decimal.Decimal `json:"max_loan_amount"`
	TotalSavings  decimal.Decimal `json:"total_savings"`
	HasActiveLoan bool            `json:"has_active_loan"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
}

// ComputeEligibility derives the borrowing position from the member's goals and loans.
// A pending or active loan blocks new borrowing; otherwise the limit is twice total savings.
func ComputeEligibility(goals []domain.SavingsGoal, loans []domain.Loan) Eligibility {
	total := decimal.Zero
	for _, g := range goals {
		total = total.Add(g.CurrentAmount)
	}
	active := false
	for _, l := range loans {
		if l.Status == domain.LoanPending || l.Status == domain.LoanActive {
			active = true
			break
		}
	}
	limit := decimal.Zero
	if !active {
		limit = total.Mul(LoanSavingsMultiple)
	}
	return Eligibility{
		Eligible:      limit.GreaterThan(MinEligibleLoan),
		MaxLoanAmount: limit,
		TotalSavings:  total,
		HasActiveLoan: active,
		InterestRate:  DefaultInterestRate,
	}
}

// LoanService handles loan origination and repayment
type LoanService struct {
	db     *gorm.DB
	ledger *ledger.Engine
}

func NewLoanService(db *gorm.DB, engine *ledger.Engine) *LoanService {
	return &LoanService{db: db, ledger: engine}
}

func (s *LoanService) Eligibility(ctx context.Context, memberID uint) (*Eligibility, error) {
	e, err := eligibilityOf(s.db.WithContext(ctx), memberID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func eligibilityOf(q *gorm.DB, memberID uint) (Eligibility, error) {
	var goals []domain.SavingsGoal
	if err := q.Where("user_id = ?", memberID).Find(&goals).Error; err != nil {
		return Eligibility{}, fmt.Errorf("load savings: %w", err)
	}
	var loans []domain.Loan
	if err := q.Where("user_id = ? AND status IN ?", memberID, []domain.LoanStatus{domain.LoanPending, domain.LoanActive}).
		Find(&loans).Error; err != nil {
		return Eligibility{}, fmt.Errorf("load loans: %w", err)
	}
	return ComputeEligibility(goals, loans), nil
}

// Loans lists the member's loans, newest first.
func (s *LoanService) Loans(ctx context.Context, memberID uint) ([]domain.Loan, error) {
	loans := []domain.Loan{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", memberID).Order("created_at desc").Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

// LoanApplication is a member's request to borrow
type LoanApplication struct {
	Amount         decimal.Decimal
	Purpose        string
	DurationMonths int
}

// Apply records a PENDING loan when the amount is within the member's limit.
// No money moves until an admin approves it.
func (s *LoanService) Apply(ctx context.Context, memberID uint, in LoanApplication) (*domain.Loan, error) {
	if err := ledger.ValidateAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.DurationMonths <= 0 || in.DurationMonths > MaxLoanDurationMonth {
		return nil, fmt.Errorf("%w: duration must be between 1 and %d months", domain.ErrInvalidInput, MaxLoanDurationMonth)
	}
	var loan domain.Loan
	err := s.ledger.Atomic(ctx, func(tx *gorm.DB) error {
		// serialize applications per member
		if err := ledger.LockRow(tx, &domain.User{}, memberID); err != nil {
			return err
		}
		e, err := eligibilityOf(tx, memberID)
		if err != nil {
			return err
		}
		if in.Amount.GreaterThan(e.MaxLoanAmount) {
			return domain.Precondition(domain.ReasonLoanLimitExceeded,
				fmt.Sprintf("maximum loan amount is %s", e.MaxLoanAmount.StringFixed(2)))
		}
		loan = domain.Loan{
			UserID:         memberID,
			Amount:         in.Amount,
			Purpose:        strings.TrimSpace(in.Purpose),
			InterestRate:   e.InterestRate,
			DurationMonths: in.DurationMonths,
			Status:         domain.LoanPending,
			RepaidAmount:   decimal.Zero,
		}
		return tx.Create(&loan).Error
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Approve disburses a PENDING loan into the borrower's wallet and activates it.
func (s *LoanService) Approve(ctx context.Context, loanID uint) (*domain.Loan, *ledger.Receipt, error) {
	loan, err := s.find(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	if loan.Status != domain.LoanPending {
		return nil, nil, domain.ErrNotPending
	}
	now := s.ledger.Now()
	due := now.AddDate(0, loan.DurationMonths, 0)
	receipt, err := s.ledger.CreditFromRelease(ctx, ledger.Movement{
		MemberID: loan.UserID,
		Amount:   loan.Amount,
		Effect: ledger.Transition(&domain.Loan{}, loan.ID, "status", domain.LoanPending, map[string]any{
			"status":       domain.LoanActive,
			"disbursed_at": now,
			"due_date":     due,
		}, domain.ErrNotPending),
		Description: "Loan disbursement: " + loan.Purpose,
		Type:        domain.TxLoanDisbursement,
		Metadata:    domain.Metadata{"loan_id": fmt.Sprint(loan.ID)},
	})
	if err != nil {
		return nil, nil, err
	}
	loan, err = s.find(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	return loan, receipt, nil
}

// Reject closes a PENDING loan without moving money.
func (s *LoanService) Reject(ctx context.Context, loanID uint) (*domain.Loan, error) {
	err := s.ledger.Atomic(ctx, func(tx *gorm.DB) error {
		return ledger.Transition(&domain.Loan{}, loanID, "status", domain.LoanPending,
			map[string]any{"status": domain.LoanRejected}, domain.ErrNotPending).Apply(tx)
	})
	if err != nil {
		return nil, err
	}
	return s.find(ctx, loanID)
}

// Repay moves amount from the wallet against an ACTIVE loan, marking it PAID once settled.
func (s *LoanService) Repay(ctx context.Context, memberID, loanID uint, amount decimal.Decimal) (*ledger.Receipt, error) {
	return s.ledger.DebitForPurchase(ctx, ledger.Movement{
		MemberID: memberID,
		Amount:   amount,
		Effect: ledger.EffectFunc(func(tx *gorm.DB) error {
			var loan domain.Loan
			if err := ledger.LockRow(tx, &loan, loanID); err != nil {
				return err
			}
			if loan.UserID != memberID {
				return fmt.Errorf("%w: loan %d", domain.ErrNotFound, loanID)
			}
			if loan.Status != domain.LoanActive {
				return domain.ErrLoanNotActive
			}
			outstanding := loan.Outstanding()
			if amount.GreaterThan(outstanding) {
				return domain.Precondition(domain.ReasonOverpayment,
					fmt.Sprintf("outstanding balance is %s", outstanding.StringFixed(2)))
			}
			values := map[string]any{"repaid_amount": loan.RepaidAmount.Add(amount)}
			if amount.Equal(outstanding) {
				values["status"] = domain.LoanPaid
			}
			return ledger.Transition(&domain.Loan{}, loan.ID, "status", domain.LoanActive, values, domain.ErrLoanNotActive).Apply(tx)
		}),
		Description: "Loan repayment",
		Type:        domain.TxLoanRepayment,
		Metadata:    domain.Metadata{"loan_id": fmt.Sprint(loanID)},
	})
}

func (s *LoanService) find(ctx context.Context, loanID uint) (*domain.Loan, error) {
	var loan domain.Loan
	err := s.db.WithContext(ctx).First(&loan, loanID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: loan %d", domain.ErrNotFound, loanID)
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}
