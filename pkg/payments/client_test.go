package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
)

func signParams(secret string, p CallbackParams) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(p.LinkID + "|" + p.ReferenceID + "|" + p.Status + "|" + p.PaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateLinkConvertsToPaise(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != "key-id" {
			t.Errorf("basic auth not set")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"plink_1","short_url":"https://rzp.io/l/x","status":"created"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(config.PaymentsConfig{
		BaseURL:     srv.URL,
		KeyID:       "key-id",
		KeySecret:   "key-secret",
		CallbackURL: "https://example.com/payment/callback",
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	link, err := client.CreateLink(context.Background(), CreateLinkRequest{
		ReferenceID:   "q9deadbeef",
		Amount:        decimal.RequireFromString("384.00"),
		Description:   "Balutedaar order q9deadbeef",
		CustomerName:  "Asha",
		CustomerPhone: "+919876543210",
	})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if link.ID != "plink_1" || link.ShortURL != "https://rzp.io/l/x" {
		t.Errorf("link = %+v", link)
	}
	if got["amount"] != float64(38400) {
		t.Errorf("amount = %v, want 38400", got["amount"])
	}
	if got["reference_id"] != "q9deadbeef" {
		t.Errorf("reference_id = %v", got["reference_id"])
	}
	if got["callback_url"] != "https://example.com/payment/callback" {
		t.Errorf("callback_url = %v", got["callback_url"])
	}
}

func TestCreateLinkRejectsZeroAmount(t *testing.T) {
	t.Parallel()

	client, err := NewClient(config.PaymentsConfig{
		BaseURL:     "http://localhost",
		KeyID:       "key-id",
		KeySecret:   "key-secret",
		CallbackURL: "https://example.com/cb",
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.CreateLink(context.Background(), CreateLinkRequest{Amount: decimal.Zero}); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	secret := "key-secret"
	params := CallbackParams{
		PaymentID:   "pay_123",
		LinkID:      "plink_1",
		ReferenceID: "q9deadbeef",
		Status:      "paid",
	}
	params.Signature = signParams(secret, params)

	if !VerifySignature(secret, params) {
		t.Error("valid signature rejected")
	}

	tampered := params
	tampered.Status = "failed"
	if VerifySignature(secret, tampered) {
		t.Error("tampered status accepted")
	}

	empty := params
	empty.Signature = ""
	if VerifySignature(secret, empty) {
		t.Error("empty signature accepted")
	}
}
