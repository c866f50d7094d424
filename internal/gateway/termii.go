package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"digicoop/internal/domain"
)

// Token defaults sent with every OTP request
const (
	PinLength      = 6
	PinAttempts    = 3
	PinTTLMinutes  = 5
	pinPlaceholder = "< 1234 >"
)

// TokenSent identifies a one-time code sent to a phone number
type TokenSent struct {
	PinID     string `json:"pinId"`
	To        string `json:"to"`
	SmsStatus string `json:"smsStatus"`
}

// TokenCheck is the provider's verdict on a submitted code
type TokenCheck struct {
	PinID  string          `json:"pinId"`
	Msisdn string          `json:"msisdn"`
	Status json.RawMessage `json:"verified"`
}

// Verified reports whether the code matched. The provider sends either a boolean or
// a string such as "True" or "Expired".
func (t TokenCheck) Verified() bool {
	var b bool
	if json.Unmarshal(t.Status, &b) == nil {
		return b
	}
	var s string
	if json.Unmarshal(t.Status, &s) == nil {
		return strings.EqualFold(s, "true")
	}
	return false
}

// TermiiClient sends and verifies SMS one-time codes through Termii
type TermiiClient struct {
	baseURL  string
	apiKey   string
	senderID string
	http     *http.Client
}

// NewTermiiClient builds a client; a nil httpClient gets a 15s timeout default.
func NewTermiiClient(baseURL, apiKey, senderID string, httpClient *http.Client) *TermiiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &TermiiClient{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, senderID: senderID, http: httpClient}
}

// SendToken texts a numeric code to the phone number.
func (c *TermiiClient) SendToken(ctx context.Context, to string) (*TokenSent, error) {
	var out TokenSent
	err := c.post(ctx, "/sms/otp/send", map[string]any{
		"api_key":          c.apiKey,
		"message_type":     "NUMERIC",
		"to":               to,
		"from":             c.senderID,
		"channel":          "generic",
		"pin_attempts":     PinAttempts,
		"pin_time_to_live": PinTTLMinutes,
		"pin_length":       PinLength,
		"pin_placeholder":  pinPlaceholder,
		"message_text":     "Your DigiCoop code is " + pinPlaceholder,
		"pin_type":         "NUMERIC",
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.PinID == "" {
		return nil, fmt.Errorf("%w: send token: missing pin id", domain.ErrExternalService)
	}
	return &out, nil
}

// VerifyToken checks pin against the code sent under pinID.
func (c *TermiiClient) VerifyToken(ctx context.Context, pinID, pin string) (*TokenCheck, error) {
	var out TokenCheck
	err := c.post(ctx, "/sms/otp/verify", map[string]any{
		"api_key": c.apiKey,
		"pin_id":  pinID,
		"pin":     pin,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.PinID == "" {
		out.PinID = pinID
	}
	return &out, nil
}

// post sends body as JSON. Termii answers a wrong or expired pin with a 4xx and a JSON
// verdict, so only 5xx and undecodable bodies count as provider failures.
func (c *TermiiClient) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", domain.ErrExternalService, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: POST %s: status %d", domain.ErrExternalService, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: POST %s: decode response: %v", domain.ErrExternalService, path, err)
	}
	return nil
}
