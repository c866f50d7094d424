package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"digicoop/internal/domain"
	"digicoop/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InvestmentService manages member investment projects
type InvestmentService struct {
	db     *gorm.DB
	ledger *ledger.Engine
	log    *logrus.Entry
}

func NewInvestmentService(db *gorm.DB, engine *ledger.Engine, log *logrus.Entry) *InvestmentService {
	return &InvestmentService{db: db, ledger: engine, log: log}
}

// CreateProjectInput describes a new investment project
type CreateProjectInput struct {
	Title          string
	Description    string
	Pitch          string
	TargetAmount   decimal.Decimal
	RoiPercentage  decimal.Decimal
	DurationMonths int
	ClosingDate    time.Time
}

func (s *InvestmentService) CreateProject(ctx context.Context, in CreateProjectInput) (*domain.InvestmentProject, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if err := ledger.ValidateAmount(in.TargetAmount); err != nil {
		return nil, err
	}
	if in.RoiPercentage.IsNegative() {
		return nil, fmt.Errorf("%w: roi percentage cannot be negative", domain.ErrInvalidInput)
	}
	if in.DurationMonths <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domain.ErrInvalidInput)
	}
	project := domain.InvestmentProject{
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Pitch:          in.Pitch,
		TargetAmount:   in.TargetAmount,
		RaisedAmount:   decimal.Zero,
		RoiPercentage:  in.RoiPercentage,
		DurationMonths: in.DurationMonths,
		ClosingDate:    in.ClosingDate.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create investment project: %w", err)
	}
	return &project, nil
}

// Projects lists projects by closing date.
func (s *InvestmentService) Projects(ctx context.Context) ([]domain.InvestmentProject, error) {
	projects := []domain.InvestmentProject{}
	if err := s.db.WithContext(ctx).Order("closing_date asc").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list investment projects: %w", err)
	}
	return projects, nil
}

// ProjectDetail is a project with its stakes
type ProjectDetail struct {
	domain.InvestmentProject
	InvestorsCount int64 `json:"investors_count"`
}

func (s *InvestmentService) Project(ctx context.Context, projectID uint) (*ProjectDetail, error) {
	var project domain.InvestmentProject
	err := s.db.WithContext(ctx).Preload("Investments").First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: investment project %d", domain.ErrNotFound, projectID)
	}
	if err != nil {
		return nil, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Investment{}).Where("project_id = ?", projectID).
		Distinct("user_id").Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count investors: %w", err)
	}
	return &ProjectDetail{InvestmentProject: project, InvestorsCount: count}, nil
}

// Portfolio lists the member's stakes with their projects.
func (s *InvestmentService) Portfolio(ctx context.Context, memberID uint) ([]domain.Investment, error) {
	stakes := []domain.Investment{}
	if err := s.db.WithContext(ctx).Preload("Project").Where("user_id = ?", memberID).
		Order("created_at desc").Find(&stakes).Error; err != nil {
		return nil, fmt.Errorf("list portfolio: %w", err)
	}
	return stakes, nil
}

// InvestReceipt is a new stake and the ledger movement that funded it
type InvestReceipt struct {
	Investment domain.Investment `json:"investment"`
	Receipt    *ledger.Receipt   `json:"receipt"`
}

// Invest stakes amount from the member's wallet in a project that is still open.
func (s *InvestmentService) Invest(ctx context.Context, memberID, projectID uint, amount decimal.Decimal) (*InvestReceipt, error) {
	var project domain.InvestmentProject
	err := s.db.WithContext(ctx).First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: investment project %d", domain.ErrNotFound, projectID)
	}
	if err != nil {
		return nil, err
	}
	if s.ledger.Now().After(project.ClosingDate) {
		return nil, domain.Precondition(domain.ReasonWindowClosed, "investment window has closed")
	}

	stake := domain.Investment{UserID: memberID, ProjectID: project.ID, Amount: amount}
	receipt, err := s.ledger.DebitForPurchase(ctx, ledger.Movement{
		MemberID: memberID,
		Amount:   amount,
		Effect: ledger.EffectFunc(func(tx *gorm.DB) error {
			var locked domain.InvestmentProject
			if err := ledger.LockRow(tx, &locked, project.ID); err != nil {
				return err
			}
			if s.ledger.Now().After(locked.ClosingDate) {
				return domain.Precondition(domain.ReasonWindowClosed, "investment window has closed")
			}
			stake.ID = 0
			return ledger.Chain(
				ledger.Create(&stake),
				ledger.Increment(&domain.InvestmentProject{}, project.ID, "raised_amount", amount),
			).Apply(tx)
		}),
		Description: "Investment: " + project.Title,
		Type:        domain.TxInvestment,
		Metadata:    domain.Metadata{"project_id": fmt.Sprint(project.ID)},
	})
	if err != nil {
		return nil, err
	}
	return &InvestReceipt{Investment: stake, Receipt: receipt}, nil
}

// DividendRun summarizes one payout pass over a project
type DividendRun struct {
	ProjectID uint            `json:"project_id"`
	Paid      int             `json:"paid"`
	Skipped   int             `json:"skipped"`
	Total     decimal.Decimal `json:"total"`
	MemberIDs []uint          `json:"member_ids"` // credited members
}

// PayDividends credits every unpaid stake with amount × roi%. Each stake is its own
// ledger movement; a stake paid concurrently is skipped, any other failure stops the run.
func (s *InvestmentService) PayDividends(ctx context.Context, projectID uint) (*DividendRun, error) {
	var project domain.InvestmentProject
	err := s.db.WithContext(ctx).First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: investment project %d", domain.ErrNotFound, projectID)
	}
	if err != nil {
		return nil, err
	}
	var stakes []domain.Investment
	if err := s.db.WithContext(ctx).Where("project_id = ? AND dividend_paid_at IS NULL", projectID).
		Order("id asc").Find(&stakes).Error; err != nil {
		return nil, fmt.Errorf("list unpaid stakes: %w", err)
	}

	run := &DividendRun{ProjectID: projectID, Total: decimal.Zero}
	for _, stake := range stakes {
		dividend := stake.Amount.Mul(project.RoiPercentage).Div(decimal.NewFromInt(100)).Truncate(ledger.CurrencyPrecision)
		if !dividend.IsPositive() {
			run.Skipped++
			continue
		}
		stakeID := stake.ID
		_, err := s.ledger.CreditFromRelease(ctx, ledger.Movement{
			MemberID: stake.UserID,
			Amount:   dividend,
			Effect: ledger.EffectFunc(func(tx *gorm.DB) error {
				res := tx.Model(&domain.Investment{}).
					Where("id = ? AND dividend_paid_at IS NULL", stakeID).
					Update("dividend_paid_at", s.ledger.Now())
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return domain.ErrAlreadyPaid
				}
				return nil
			}),
			Description: "Dividend: " + project.Title,
			Type:        domain.TxDividend,
			Metadata:    domain.Metadata{"project_id": fmt.Sprint(projectID), "investment_id": fmt.Sprint(stakeID)},
		})
		if errors.Is(err, domain.ErrAlreadyPaid) {
			run.Skipped++
			continue
		}
		if err != nil {
			return run, err
		}
		run.Paid++
		run.Total = run.Total.Add(dividend)
		run.MemberIDs = append(run.MemberIDs, stake.UserID)
	}
	s.log.WithFields(logrus.Fields{
		"project_id": projectID,
		"paid":       run.Paid,
		"skipped":    run.Skipped,
		"total":      run.Total.String(),
	}).Info("Dividend run finished")
	return run, nil
}
