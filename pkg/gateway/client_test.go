package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
)

type recordedSend struct {
	Recipient string
	MessageID string
	Status    int
	Tag       string
}

type captureAudit struct {
	mu    sync.Mutex
	sends []recordedSend
}

func (c *captureAudit) LogSend(_ context.Context, recipient, providerMessageID string, statusCode int, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends = append(c.sends, recordedSend{recipient, providerMessageID, statusCode, tag})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) (*Client, *captureAudit) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	audit := &captureAudit{}
	client, err := NewClient(config.GatewayConfig{
		BaseURL:     srv.URL,
		AuthKey:     "test-key",
		Timeout:     2 * time.Second,
		MaxRetries:  retries,
		CountryCode: "+91",
	}, nil, audit)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, audit
}

func TestSendTextNormalizesPhoneAndAudits(t *testing.T) {
	t.Parallel()

	var got map[string]any
	client, audit := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.abc"}]}`))
	}, 0)

	if err := client.SendText(context.Background(), "919876543210", "hello", TagGreeting); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if got["phone"] != "+919876543210" {
		t.Errorf("phone = %v, want +919876543210", got["phone"])
	}
	if got["text"] != "hello" {
		t.Errorf("text = %v, want hello", got["text"])
	}

	if len(audit.sends) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audit.sends))
	}
	entry := audit.sends[0]
	if entry.MessageID != "wamid.abc" || entry.Status != http.StatusOK || entry.Tag != TagGreeting {
		t.Errorf("audit entry = %+v", entry)
	}
}

func TestSendRetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls int
	client, audit := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.retry"}]}`))
	}, 2)

	if err := client.SendText(context.Background(), "919876543210", "hello", TagGreeting); err != nil {
		t.Fatalf("SendText after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if audit.sends[len(audit.sends)-1].MessageID != "wamid.retry" {
		t.Errorf("audit message id = %s", audit.sends[len(audit.sends)-1].MessageID)
	}
}

func TestSendDoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls int
	client, audit := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}, 3)

	if err := client.SendText(context.Background(), "919876543210", "hello", TagGreeting); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(audit.sends) != 1 || audit.sends[0].MessageID != "unknown" {
		t.Errorf("audit = %+v", audit.sends)
	}
}

func TestSendCatalogBuildsProductList(t *testing.T) {
	t.Parallel()

	var got map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}, 0)

	if err := client.SendCatalog(context.Background(), "919876543210", "1221166119417288", []string{"D-9011", "D-9012"}); err != nil {
		t.Fatalf("SendCatalog: %v", err)
	}

	catalog, ok := got["catalog"].(map[string]any)
	if !ok {
		t.Fatalf("catalog payload missing: %v", got)
	}
	action := catalog["action"].(map[string]any)
	if action["catalog_id"] != "1221166119417288" {
		t.Errorf("catalog_id = %v", action["catalog_id"])
	}
	sections := action["sections"].([]any)
	items := sections[0].(map[string]any)["product_items"].([]any)
	if len(items) != 2 {
		t.Errorf("product_items = %d, want 2", len(items))
	}
}
