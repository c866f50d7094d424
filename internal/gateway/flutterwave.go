// Package gateway holds the HTTP clients for the payment and identity providers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"digicoop/internal/domain"

	"github.com/shopspring/decimal"
)

// Customer identifies the payer on the hosted checkout
type Customer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber"`
	Name        string `json:"name"`
}

// Customizations brand the hosted checkout page
type Customizations struct {
	Title string `json:"title"`
	Logo  string `json:"logo,omitempty"`
}

// PaymentRequest starts a hosted payment
type PaymentRequest struct {
	TxRef          string          `json:"tx_ref"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	RedirectURL    string          `json:"redirect_url"`
	Customer       Customer        `json:"customer"`
	Customizations Customizations  `json:"customizations"`
}

// PaymentLink is where the member completes the payment
type PaymentLink struct {
	Link string `json:"link"`
}

// Verification is the provider's own record of a charge
type Verification struct {
	ID       int64           `json:"id"`
	TxRef    string          `json:"tx_ref"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Successful reports whether the provider settled the charge.
func (v Verification) Successful() bool {
	return strings.EqualFold(v.Status, "successful")
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// FlutterwaveClient talks to the Flutterwave v3 API
type FlutterwaveClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewFlutterwaveClient builds a client; a nil httpClient gets a 15s timeout default.
func NewFlutterwaveClient(baseURL, secretKey string, httpClient *http.Client) *FlutterwaveClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &FlutterwaveClient{baseURL: strings.TrimRight(baseURL, "/"), secretKey: secretKey, http: httpClient}
}

// InitiatePayment creates a hosted payment link for req.
func (c *FlutterwaveClient) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentLink, error) {
	var out envelope[PaymentLink]
	if err := c.do(ctx, http.MethodPost, "/payments", req, &out); err != nil {
		return nil, err
	}
	if out.Status != "success" || out.Data.Link == "" {
		return nil, fmt.Errorf("%w: initiate payment: %s", domain.ErrExternalService, out.Message)
	}
	return &out.Data, nil
}

// VerifyTransaction fetches the provider's record of the charge with the given id.
func (c *FlutterwaveClient) VerifyTransaction(ctx context.Context, id string) (*Verification, error) {
	var out envelope[Verification]
	if err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(id)+"/verify", nil, &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("%w: verify transaction %s: %s", domain.ErrExternalService, id, out.Message)
	}
	return &out.Data, nil
}

func (c *FlutterwaveClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrExternalService, method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s %s: status %d", domain.ErrExternalService, method, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: decode response: %v", domain.ErrExternalService, method, path, err)
	}
	return nil
}
