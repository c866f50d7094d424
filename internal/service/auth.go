package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"digicoop/internal/domain"
	"digicoop/internal/ledger"
	"digicoop/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password length bounds
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
)

// AuthService registers and authenticates members
type AuthService struct {
	db        *gorm.DB
	ledger    *ledger.Engine
	jwtSecret string
}

func NewAuthService(db *gorm.DB, engine *ledger.Engine, jwtSecret string) *AuthService {
	return &AuthService{db: db, ledger: engine, jwtSecret: jwtSecret}
}

// RegisterInput is a new member's sign-up data
type RegisterInput struct {
	Email       string
	PhoneNumber string
	FullName    string
	Password    string
}

// Register creates a MEMBER account with an empty wallet.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength || len(in.Password) > MaxPasswordLength {
		return nil, fmt.Errorf("%w: password must be %d-%d characters", domain.ErrInvalidInput, MinPasswordLength, MaxPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		Email:        email,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: string(hash),
		KycStatus:    domain.KycPending,
		Role:         domain.RoleMember,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: email already registered", domain.ErrInvalidInput)
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: email already registered", domain.ErrInvalidInput)
			}
			return err
		}
		user.MembershipID = fmt.Sprintf("DC%06d", user.ID)
		return tx.Model(&user).Update("membership_id", user.MembershipID).Error
	})
	if err != nil {
		return nil, err
	}
	wallet, err := s.ledger.Wallet(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Wallet = wallet
	return &user, nil
}

// Login checks credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	token, err := utils.GenerateJWT(user.ID, string(user.Role), s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, &user, nil
}
