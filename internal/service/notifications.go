package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"digicoop/internal/domain"
	"digicoop/internal/gateway"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

// TokenProvider is the outbound SMS one-time code provider
type TokenProvider interface {
	SendToken(ctx context.Context, to string) (*gateway.TokenSent, error)
	VerifyToken(ctx context.Context, pinID, pin string) (*gateway.TokenCheck, error)
}

// NotificationService sends and checks one-time codes. Like KYC it never touches balances.
type NotificationService struct {
	db       *gorm.DB
	provider TokenProvider
	log      *logrus.Entry
}

func NewNotificationService(db *gorm.DB, provider TokenProvider, log *logrus.Entry) *NotificationService {
	return &NotificationService{db: db, provider: provider, log: log}
}

// OtpResult is the outcome of a code check
type OtpResult struct {
	PinID    string `json:"pin_id"`
	Verified bool   `json:"verified"`
}

// SendOtp texts a code to phone, or to the member's phone on record when phone is empty.
func (s *NotificationService) SendOtp(ctx context.Context, memberID uint, phone string) (*gateway.TokenSent, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		var member domain.User
		err := s.db.WithContext(ctx).Select("id", "phone_number").First(&member, memberID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: member %d", domain.ErrNotFound, memberID)
		}
		if err != nil {
			return nil, err
		}
		phone = member.PhoneNumber
	}
	if !phonePattern.MatchString(phone) {
		return nil, fmt.Errorf("%w: phone number must be 10 to 15 digits", domain.ErrInvalidInput)
	}
	sent, err := s.provider.SendToken(ctx, phone)
	if err != nil {
		return nil, externalFailure(err)
	}
	s.log.WithFields(logrus.Fields{"member_id": memberID, "pin_id": sent.PinID}).Info("OTP sent")
	return sent, nil
}

// VerifyOtp checks pin against the code sent under pinID.
func (s *NotificationService) VerifyOtp(ctx context.Context, memberID uint, pinID, pin string) (*OtpResult, error) {
	if strings.TrimSpace(pinID) == "" || strings.TrimSpace(pin) == "" {
		return nil, fmt.Errorf("%w: pin id and pin are required", domain.ErrInvalidInput)
	}
	check, err := s.provider.VerifyToken(ctx, pinID, pin)
	if err != nil {
		return nil, externalFailure(err)
	}
	out := &OtpResult{PinID: check.PinID, Verified: check.Verified()}
	s.log.WithFields(logrus.Fields{"member_id": memberID, "pin_id": out.PinID, "verified": out.Verified}).Info("OTP checked")
	return out, nil
}

// externalFailure tags provider errors so they map to a generic 500.
func externalFailure(err error) error {
	if errors.Is(err, domain.ErrExternalService) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrExternalService, err)
}
