package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"digicoop/internal/domain"
	"digicoop/internal/gateway"
	"digicoop/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PaymentGateway is the outbound payment provider
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentLink, error)
	VerifyTransaction(ctx context.Context, id string) (*gateway.Verification, error)
}

// PaymentOptions carries the deposit flow's settings
type PaymentOptions struct {
	Currency    string
	RedirectURL string
	WebhookHash string
}

// PaymentService funds wallets through the payment gateway
type PaymentService struct {
	db      *gorm.DB
	ledger  *ledger.Engine
	gateway PaymentGateway
	opts    PaymentOptions
	log     *logrus.Entry
}

func NewPaymentService(db *gorm.DB, engine *ledger.Engine, gw PaymentGateway, opts PaymentOptions, log *logrus.Entry) *PaymentService {
	return &PaymentService{db: db, ledger: engine, gateway: gw, opts: opts, log: log}
}

// DepositIntent is a started deposit awaiting the member's payment
type DepositIntent struct {
	Reference   string              `json:"reference"`
	Link        string              `json:"link"`
	Transaction *domain.Transaction `json:"transaction"`
}

// InitiateDeposit opens a hosted payment for amount and records the pending entry.
// The gateway is called before anything is written so no transaction spans the round trip.
func (s *PaymentService) InitiateDeposit(ctx context.Context, memberID uint, amount decimal.Decimal) (*DepositIntent, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return nil, err
	}
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: member %d", domain.ErrNotFound, memberID)
	}
	if err != nil {
		return nil, err
	}

	reference := "TX-" + uuid.NewString()
	link, err := s.gateway.InitiatePayment(ctx, gateway.PaymentRequest{
		TxRef:       reference,
		Amount:      amount,
		Currency:    s.opts.Currency,
		RedirectURL: s.opts.RedirectURL,
		Customer: gateway.Customer{
			Email:       user.Email,
			PhoneNumber: user.PhoneNumber,
			Name:        user.FullName,
		},
		Customizations: gateway.Customizations{Title: "DigiCoop Wallet Deposit"},
	})
	if err != nil {
		if !errors.Is(err, domain.ErrExternalService) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalService, err)
		}
		return nil, err
	}
	entry, err := s.ledger.RecordPendingDeposit(ctx, memberID, amount, reference)
	if err != nil {
		return nil, err
	}
	return &DepositIntent{Reference: reference, Link: link.Link, Transaction: entry}, nil
}

// VerifySignature checks the webhook's shared secret. With no secret configured every
// delivery is refused.
func (s *PaymentService) VerifySignature(header string) bool {
	if s.opts.WebhookHash == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(s.opts.WebhookHash)) == 1
}

// WebhookEvent is the gateway's asynchronous charge notification
type WebhookEvent struct {
	ID     json.Number     `json:"id"`
	TxRef  string          `json:"txRef"`
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
}

// Webhook outcomes
const (
	OutcomeCredited   = "credited"
	OutcomeDuplicate  = "duplicate"
	OutcomeFailed     = "failed"
	OutcomeUnverified = "unverified"
	OutcomeIgnored    = "ignored"
)

// WebhookOutcome says what a delivery did
type WebhookOutcome struct {
	Reference string `json:"reference"`
	Outcome   string `json:"outcome"`
	MemberID  uint   `json:"member_id,omitempty"` // set when a wallet was credited
}

// HandleWebhook applies a gateway notification. Repeated deliveries are safe: only the
// first successful one credits the wallet, later ones report a duplicate.
func (s *PaymentService) HandleWebhook(ctx context.Context, ev WebhookEvent) (*WebhookOutcome, error) {
	out := &WebhookOutcome{Reference: ev.TxRef, Outcome: OutcomeIgnored}
	if ev.TxRef == "" {
		return out, nil
	}
	switch strings.ToLower(ev.Status) {
	case "successful":
		return s.confirm(ctx, ev, out)
	case "failed", "cancelled":
		changed, err := s.ledger.FailPendingDeposit(ctx, ev.TxRef)
		if err != nil {
			return nil, err
		}
		if changed {
			out.Outcome = OutcomeFailed
		}
		return out, nil
	}
	return out, nil
}

func (s *PaymentService) confirm(ctx context.Context, ev WebhookEvent, out *WebhookOutcome) (*WebhookOutcome, error) {
	entry, err := s.ledger.PendingDeposit(ctx, ev.TxRef)
	if errors.Is(err, domain.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.TxPending {
		out.Outcome = OutcomeDuplicate
		return out, nil
	}

	// verify with the provider outside any store transaction
	verified, err := s.gateway.VerifyTransaction(ctx, ev.ID.String())
	if err != nil {
		if !errors.Is(err, domain.ErrExternalService) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalService, err)
		}
		return nil, err
	}
	if !verified.Successful() || verified.TxRef != ev.TxRef ||
		(verified.Currency != "" && !strings.EqualFold(verified.Currency, s.opts.Currency)) {
		s.log.WithFields(logrus.Fields{
			"reference":       ev.TxRef,
			"verified_status": verified.Status,
			"verified_ref":    verified.TxRef,
			"currency":        verified.Currency,
		}).Warn("Webhook not confirmed by gateway")
		out.Outcome = OutcomeUnverified
		return out, nil
	}

	conf, err := s.ledger.ConfirmPendingDeposit(ctx, ev.TxRef, verified.Amount)
	if err != nil {
		return nil, err
	}
	if conf.Credited {
		out.Outcome = OutcomeCredited
		if conf.Wallet != nil {
			out.MemberID = conf.Wallet.UserID
		}
	} else {
		out.Outcome = OutcomeDuplicate
	}
	return out, nil
}
