package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

const messagesPath = "/wba/v1/messages"

// AuditLogger records every outbound send attempt. Implementations must be
// append-only; the conversation flow never reads this log.
type AuditLogger interface {
	LogSend(ctx context.Context, recipient, providerMessageID string, statusCode int, tag string)
}

// Client talks to the WhatsApp business messaging provider. Delivery is
// best-effort: callers treat errors as loggable, not transactional.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	authKey     string
	countryCode string
	maxRetries  int
	logg        *logger.Logger
	audit       AuditLogger
}

// NewClient builds a provider client with bounded timeouts and retries.
func NewClient(cfg config.GatewayConfig, logg *logger.Logger, audit AuditLogger) (*Client, error) {
	if strings.TrimSpace(cfg.AuthKey) == "" {
		return nil, fmt.Errorf("gateway auth key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		authKey:     cfg.AuthKey,
		countryCode: cfg.CountryCode,
		maxRetries:  cfg.MaxRetries,
		logg:        logg,
		audit:       audit,
	}, nil
}

// SendText delivers a plain text message tagged for the audit log.
func (c *Client) SendText(ctx context.Context, to, body, tag string) error {
	payload := map[string]any{
		"phone":           c.normalizePhone(to),
		"text":            body,
		"enable_acculync": true,
		"extra":           tag,
	}
	return c.post(ctx, to, payload, tag)
}

// SendOrderActions delivers the confirm / main-menu interactive list.
func (c *Client) SendOrderActions(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"phone":           c.normalizePhone(to),
		"enable_acculync": false,
		"extra":           TagOrderSummary,
		"media": map[string]any{
			"type":        "interactive_list",
			"body":        body,
			"button_text": "Choose an Option",
			"button": []map[string]any{
				{
					"section_title": "Order Actions",
					"row": []map[string]any{
						{"id": ReplyConfirm, "title": "Confirm", "description": "Confirm your order"},
					},
				},
				{
					"section_title": "Menu Options",
					"row": []map[string]any{
						{"id": ReplyMainMenu, "title": "Main Menu", "description": "Return to main menu"},
					},
				},
			},
		},
	}
	return c.post(ctx, to, payload, TagOrderSummary)
}

// SendPaymentOptions delivers the COD / Pay Now interactive list.
func (c *Client) SendPaymentOptions(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"phone":           c.normalizePhone(to),
		"enable_acculync": false,
		"extra":           TagPayment,
		"media": map[string]any{
			"type":        "interactive_list",
			"body":        body,
			"button_text": "Choose Payment",
			"button": []map[string]any{
				{
					"section_title": "Cash on Delivery",
					"row": []map[string]any{
						{"id": ReplyCOD, "title": "COD", "description": "Pay cash on delivery"},
					},
				},
				{
					"section_title": "Online Payment",
					"row": []map[string]any{
						{"id": ReplyPayNow, "title": "Pay Now", "description": "Pay via UPI or Card"},
					},
				},
			},
		},
	}
	return c.post(ctx, to, payload, TagPayment)
}

// SendAddressOptions asks whether to reuse the saved address or enter a new one.
func (c *Client) SendAddressOptions(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"phone":           c.normalizePhone(to),
		"enable_acculync": false,
		"extra":           TagAddressChoice,
		"media": map[string]any{
			"type":        "interactive_list",
			"body":        body,
			"button_text": "Delivery Address",
			"button": []map[string]any{
				{
					"section_title": "Saved Address",
					"row": []map[string]any{
						{"id": ReplyKeepAddress, "title": "Use Saved Address", "description": "Deliver to your saved address"},
					},
				},
				{
					"section_title": "New Address",
					"row": []map[string]any{
						{"id": ReplyNewAddress, "title": "New Address", "description": "Enter a different address"},
					},
				},
			},
		},
	}
	return c.post(ctx, to, payload, TagAddressChoice)
}

// SendCatalog delivers the multi-product catalog message.
func (c *Client) SendCatalog(ctx context.Context, to, catalogID string, productIDs []string) error {
	items := make([]map[string]string, 0, len(productIDs))
	for _, id := range productIDs {
		items = append(items, map[string]string{"product_retailer_id": id})
	}
	payload := map[string]any{
		"phone": c.normalizePhone(to),
		"catalog": map[string]any{
			"type": "product_list",
			"header": map[string]any{
				"type": "text",
				"text": "Explore Our Fresh Veggie Combos! 🥗",
			},
			"body": map[string]any{
				"text": "Select a combo for farm-fresh vegetables delivered to you! 🚜",
			},
			"action": map[string]any{
				"catalog_id": catalogID,
				"sections": []map[string]any{
					{
						"title":         "Fresh Vegetable Combos",
						"product_items": items,
					},
				},
			},
		},
	}
	return c.post(ctx, to, payload, TagMenu)
}

func (c *Client) post(ctx context.Context, recipient string, payload map[string]any, tag string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway payload")
	}

	var statusCode int
	var respBody []byte

	backoff := retry.WithMaxRetries(uint64(c.retries()), retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", c.authKey)

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return retry.RetryableError(doErr)
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode
		respBody, _ = io.ReadAll(resp.Body)

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(fmt.Errorf("gateway returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("gateway returned %d", resp.StatusCode)
		}
		return nil
	})

	messageID := extractMessageID(respBody)
	if c.audit != nil {
		c.audit.LogSend(ctx, recipient, messageID, statusCode, tag)
	}
	if err != nil {
		if c.logg != nil {
			c.logg.Error(ctx, "gateway send failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send message")
	}
	return nil
}

func (c *Client) retries() int {
	if c.maxRetries <= 0 {
		return 0
	}
	return c.maxRetries
}

// normalizePhone prefixes the configured country code when the recipient is
// a bare national number.
func (c *Client) normalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if strings.HasPrefix(trimmed, "+") {
		return trimmed
	}
	code := c.countryCode
	if code == "" {
		code = "+91"
	}
	if len(trimmed) > 10 {
		trimmed = trimmed[len(trimmed)-10:]
	}
	return code + trimmed
}

func extractMessageID(respBody []byte) string {
	if len(respBody) == 0 {
		return "unknown"
	}
	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return "unknown"
	}
	return parsed.Messages[0].ID
}
