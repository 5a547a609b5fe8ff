package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

// PaymentLink is the subset of the provider response the bot needs.
type PaymentLink struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
	Status   string `json:"status"`
}

// CreateLinkRequest describes a payment link for one placed order reference.
type CreateLinkRequest struct {
	ReferenceID   string
	Amount        decimal.Decimal
	Description   string
	CustomerName  string
	CustomerPhone string
}

// Client creates hosted payment links and verifies their callback signatures.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	keyID       string
	keySecret   string
	callbackURL string
	maxRetries  int
	logg        *logger.Logger
}

func NewClient(cfg config.PaymentsConfig, logg *logger.Logger) (*Client, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("payments key pair is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		keyID:       cfg.KeyID,
		keySecret:   cfg.KeySecret,
		callbackURL: cfg.CallbackURL,
		maxRetries:  cfg.MaxRetries,
		logg:        logg,
	}, nil
}

// CreateLink creates a hosted payment link for the charged total. The amount
// is converted to the provider's smallest currency unit (paise).
func (c *Client) CreateLink(ctx context.Context, req CreateLinkRequest) (*PaymentLink, error) {
	paise := req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if paise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	payload := map[string]any{
		"amount":       paise,
		"currency":     "INR",
		"reference_id": req.ReferenceID,
		"description":  req.Description,
		"customer": map[string]any{
			"name":    req.CustomerName,
			"contact": req.CustomerPhone,
		},
		"notify": map[string]any{
			"sms":      false,
			"whatsapp": false,
		},
		"callback_url":    c.callbackURL,
		"callback_method": "get",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payment link payload")
	}

	var link PaymentLink
	backoff := retry.WithMaxRetries(uint64(max(c.maxRetries, 0)), retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment_links", bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.SetBasicAuth(c.keyID, c.keySecret)

		resp, doErr := c.httpClient.Do(httpReq)
		if doErr != nil {
			return retry.RetryableError(doErr)
		}
		defer resp.Body.Close()

		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return retry.RetryableError(readErr)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(fmt.Errorf("payment provider returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("payment provider returned %d: %s", resp.StatusCode, respBody)
		}
		return json.Unmarshal(respBody, &link)
	})
	if err != nil {
		if c.logg != nil {
			c.logg.Error(ctx, "payment link creation failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment link")
	}
	if link.ID == "" || link.ShortURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment provider returned incomplete link")
	}
	return &link, nil
}

// CallbackParams are the query parameters the provider appends when
// redirecting the customer back after payment.
type CallbackParams struct {
	PaymentID   string
	LinkID      string
	ReferenceID string
	Status      string
	Signature   string
}

// VerifySignature checks the HMAC-SHA256 signature over the callback
// parameters. The signed payload order is fixed by the provider.
func (c *Client) VerifySignature(p CallbackParams) bool {
	return VerifySignature(c.keySecret, p)
}

func VerifySignature(secret string, p CallbackParams) bool {
	if p.Signature == "" {
		return false
	}
	payload := strings.Join([]string{p.LinkID, p.ReferenceID, p.Status, p.PaymentID}, "|")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(p.Signature))
}
