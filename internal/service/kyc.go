package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"digicoop/internal/domain"
	"digicoop/internal/gateway"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var bvnPattern = regexp.MustCompile(`^\d{11}$`)

// IdentityVerifier is the outbound identity provider
type IdentityVerifier interface {
	VerifyBVN(ctx context.Context, req gateway.BvnRequest) (*gateway.IdentityResult, error)
}

// KycService links verified identities to member accounts. It only ever touches
// account flags, never balances.
type KycService struct {
	db       *gorm.DB
	verifier IdentityVerifier
	log      *logrus.Entry
}

func NewKycService(db *gorm.DB, verifier IdentityVerifier, log *logrus.Entry) *KycService {
	return &KycService{db: db, verifier: verifier, log: log}
}

// KycResult is the member's verification outcome
type KycResult struct {
	Verified bool                    `json:"verified"`
	Status   domain.KycStatus        `json:"kyc_status"`
	Result   *gateway.IdentityResult `json:"result"`
}

// VerifyBVN checks the BVN with the provider and records the outcome on the member.
func (s *KycService) VerifyBVN(ctx context.Context, memberID uint, req gateway.BvnRequest) (*KycResult, error) {
	if !bvnPattern.MatchString(req.Bvn) {
		return nil, fmt.Errorf("%w: bvn must be 11 digits", domain.ErrInvalidInput)
	}
	if req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", domain.ErrInvalidInput)
	}
	q := s.db.WithContext(ctx)
	var member domain.User
	err := q.First(&member, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: member %d", domain.ErrNotFound, memberID)
	}
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnlinked(q, memberID, req.Bvn); err != nil {
		return nil, err
	}

	result, err := s.verifier.VerifyBVN(ctx, req)
	if err != nil {
		if !errors.Is(err, domain.ErrExternalService) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalService, err)
		}
		return nil, err
	}

	out := &KycResult{Verified: result.Verified(), Result: result}
	updates := map[string]any{"kyc_status": domain.KycFailed}
	if out.Verified {
		updates = map[string]any{"kyc_status": domain.KycVerified, "bvn": req.Bvn}
	}
	err = q.Transaction(func(tx *gorm.DB) error {
		if out.Verified {
			if err := s.ensureUnlinked(tx, memberID, req.Bvn); err != nil {
				return err
			}
		}
		return tx.Model(&domain.User{}).Where("id = ?", memberID).Updates(updates).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, domain.ErrDuplicateIdentity
	}
	if err != nil {
		return nil, err
	}
	out.Status = updates["kyc_status"].(domain.KycStatus)
	s.log.WithFields(logrus.Fields{
		"member_id":   memberID,
		"kyc_status":  out.Status,
		"result_code": result.ResultCode,
	}).Info("KYC verification recorded")
	return out, nil
}

// ensureUnlinked fails when another member already holds bvn.
func (s *KycService) ensureUnlinked(q *gorm.DB, memberID uint, bvn string) error {
	var count int64
	if err := q.Model(&domain.User{}).Where("bvn = ? AND id <> ?", bvn, memberID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrDuplicateIdentity
	}
	return nil
}
