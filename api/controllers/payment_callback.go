package controllers

import (
	"context"
	"net/http"

	paymentwebhooks "github.com/rushikeshnagarkar/balutedaar-app/internal/webhooks/payment"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/payments"
)

type reconciler interface {
	Reconcile(ctx context.Context, params payments.CallbackParams) (*paymentwebhooks.Outcome, error)
}

// PaymentCallbackController handles the provider's browser redirect after a
// hosted payment link resolves. The response body is shown to the customer,
// so it is plain text, not the JSON envelope.
type PaymentCallbackController struct {
	reconciler reconciler
	logg       *logger.Logger
}

// NewPaymentCallbackController builds the callback controller.
func NewPaymentCallbackController(reconciler reconciler, logg *logger.Logger) *PaymentCallbackController {
	return &PaymentCallbackController{reconciler: reconciler, logg: logg}
}

// Handle reconciles one callback redirect.
func (c *PaymentCallbackController) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	params := payments.CallbackParams{
		PaymentID:   q.Get("razorpay_payment_id"),
		LinkID:      q.Get("razorpay_payment_link_id"),
		ReferenceID: q.Get("razorpay_payment_link_reference_id"),
		Status:      q.Get("razorpay_payment_link_status"),
		Signature:   q.Get("razorpay_signature"),
	}

	outcome, err := c.reconciler.Reconcile(ctx, params)
	if err != nil {
		if c.logg != nil {
			c.logg.Error(ctx, "payment callback reconciliation failed", err)
		}
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized):
			writePlain(w, http.StatusUnauthorized, "Payment verification failed.")
		case pkgerrors.IsCode(err, pkgerrors.CodeValidation), pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			writePlain(w, http.StatusBadRequest, "Error processing payment callback.")
		default:
			writePlain(w, http.StatusInternalServerError, "Error processing payment callback.")
		}
		return
	}

	if outcome.Failed {
		writePlain(w, http.StatusOK, "Payment failed or cancelled. Please try again.")
		return
	}
	writePlain(w, http.StatusOK, "Payment successful! Your order is confirmed.")
}

func writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
