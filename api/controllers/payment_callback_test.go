package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	paymentwebhooks "github.com/rushikeshnagarkar/balutedaar-app/internal/webhooks/payment"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/payments"
)

type fakeReconciler struct {
	outcome *paymentwebhooks.Outcome
	err     error
	params  payments.CallbackParams
}

func (f *fakeReconciler) Reconcile(ctx context.Context, params payments.CallbackParams) (*paymentwebhooks.Outcome, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func getCallback(t *testing.T, c *PaymentCallbackController, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/payment/callback?"+query, nil)
	rec := httptest.NewRecorder()
	c.Handle(rec, req)
	return rec
}

const paidQuery = "razorpay_payment_id=pay_123" +
	"&razorpay_payment_link_id=plink_123" +
	"&razorpay_payment_link_reference_id=q9aaaa1111" +
	"&razorpay_payment_link_status=paid" +
	"&razorpay_signature=deadbeef"

func TestCallbackSettledShowsConfirmation(t *testing.T) {
	t.Parallel()

	rc := &fakeReconciler{outcome: &paymentwebhooks.Outcome{ReferenceID: "q9aaaa1111", Settled: true}}
	c := NewPaymentCallbackController(rc, nil)

	rec := getCallback(t, c, paidQuery)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "Payment successful! Your order is confirmed." {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if rc.params.ReferenceID != "q9aaaa1111" || rc.params.Signature != "deadbeef" {
		t.Fatalf("query not mapped to callback params: %+v", rc.params)
	}
}

func TestCallbackFailedShowsRetryMessage(t *testing.T) {
	t.Parallel()

	rc := &fakeReconciler{outcome: &paymentwebhooks.Outcome{ReferenceID: "q9aaaa1111", Failed: true}}
	c := NewPaymentCallbackController(rc, nil)

	rec := getCallback(t, c, paidQuery)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "Payment failed or cancelled. Please try again." {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestCallbackBadSignatureIsUnauthorized(t *testing.T) {
	t.Parallel()

	rc := &fakeReconciler{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "callback signature mismatch")}
	c := NewPaymentCallbackController(rc, nil)

	rec := getCallback(t, c, paidQuery)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Body.String() != "Payment verification failed." {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestCallbackUnknownReferenceIsBadRequest(t *testing.T) {
	t.Parallel()

	rc := &fakeReconciler{err: pkgerrors.New(pkgerrors.CodeNotFound, "no pending order for reference")}
	c := NewPaymentCallbackController(rc, nil)

	rec := getCallback(t, c, paidQuery)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if rec.Body.String() != "Error processing payment callback." {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestCallbackInternalErrorIs500(t *testing.T) {
	t.Parallel()

	rc := &fakeReconciler{err: pkgerrors.New(pkgerrors.CodeInternal, "db unavailable")}
	c := NewPaymentCallbackController(rc, nil)

	rec := getCallback(t, c, paidQuery)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
