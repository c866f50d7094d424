package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"digicoop/internal/domain"
)

// ResultVerified is the provider's result code for a matched identity
const ResultVerified = "1012"

// BvnRequest asks the provider to match a BVN against the member's name
type BvnRequest struct {
	Bvn       string
	FirstName string
	LastName  string
	Dob       string // YYYY-MM-DD, optional
}

// IdentityResult is the provider's verdict
type IdentityResult struct {
	ResultCode string            `json:"ResultCode"`
	ResultText string            `json:"ResultText"`
	SmileJobID string            `json:"SmileJobID,omitempty"`
	Actions    map[string]string `json:"Actions,omitempty"`
}

// Verified reports whether the identity matched.
func (r IdentityResult) Verified() bool { return r.ResultCode == ResultVerified }

// SmileIdentityClient calls the Smile Identity enhanced KYC endpoint
type SmileIdentityClient struct {
	baseURL   string
	partnerID string
	apiKey    string
	http      *http.Client
	now       func() time.Time
}

func NewSmileIdentityClient(baseURL, partnerID, apiKey string, httpClient *http.Client) *SmileIdentityClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SmileIdentityClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		partnerID: partnerID,
		apiKey:    apiKey,
		http:      httpClient,
		now:       time.Now,
	}
}

// Signature signs timestamp for the partner per the provider's request-signing scheme.
func (c *SmileIdentityClient) Signature(timestamp string) string {
	mac := hmac.New(sha256.New, []byte(c.apiKey))
	mac.Write([]byte(timestamp + c.partnerID + "sid_request"))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *SmileIdentityClient) VerifyBVN(ctx context.Context, in BvnRequest) (*IdentityResult, error) {
	timestamp := c.now().UTC().Format(time.RFC3339)
	payload := map[string]string{
		"partner_id": c.partnerID,
		"timestamp":  timestamp,
		"signature":  c.Signature(timestamp),
		"country":    "NG",
		"id_type":    "BVN",
		"id_number":  in.Bvn,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	}
	if in.Dob != "" {
		payload["dob"] = in.Dob
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/id_verification", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("smileid-partner-id", c.partnerID)
	req.Header.Set("smileid-request-signature", c.Signature(timestamp))
	req.Header.Set("smileid-timestamp", timestamp)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: identity verification: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: identity verification: status %d", domain.ErrExternalService, resp.StatusCode)
	}
	var result IdentityResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: identity verification: decode response: %v", domain.ErrExternalService, err)
	}
	if result.ResultCode == "" {
		return nil, fmt.Errorf("%w: identity verification: missing result code", domain.ErrExternalService)
	}
	return &result, nil
}
