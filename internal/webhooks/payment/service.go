package payment

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/internal/orders"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/users"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/enums"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/metrics"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/payments"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type signatureVerifier interface {
	VerifySignature(p payments.CallbackParams) bool
}

type notifier interface {
	SendText(ctx context.Context, to, body, tag string) error
}

// Outcome describes what one callback invocation actually did. Replays for
// an already-settled reference id report Settled=false with no error.
type Outcome struct {
	ReferenceID string
	Settled     bool
	Failed      bool
	Lines       []models.Order
}

// Service reconciles asynchronous payment callbacks against the orders a
// Pay Now checkout left Pending. All transitions are status-gated so the
// callback is idempotent under replays.
type Service struct {
	tx         txRunner
	ordersRepo *orders.Repository
	usersRepo  *users.Repository
	verifier   signatureVerifier
	notify     notifier
	botMetrics *metrics.BotMetrics
	logg       *logger.Logger
}

// NewService builds the callback reconciler.
func NewService(
	tx txRunner,
	ordersRepo *orders.Repository,
	usersRepo *users.Repository,
	verifier signatureVerifier,
	notify notifier,
	botMetrics *metrics.BotMetrics,
	logg *logger.Logger,
) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil || usersRepo == nil {
		return nil, fmt.Errorf("repositories required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("signature verifier required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if botMetrics == nil {
		botMetrics = metrics.NewBotMetrics(nil)
	}
	return &Service{
		tx:         tx,
		ordersRepo: ordersRepo,
		usersRepo:  usersRepo,
		verifier:   verifier,
		notify:     notify,
		botMetrics: botMetrics,
		logg:       logg,
	}, nil
}

// Reconcile applies one callback. Paid callbacks must carry a valid
// signature; anything else marks the referenced orders Failed and tells the
// user. Notifications go out only when this invocation changed rows, so a
// replay cannot double-notify.
func (s *Service) Reconcile(ctx context.Context, params payments.CallbackParams) (*Outcome, error) {
	if params.ReferenceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference id required")
	}
	if s.logg != nil {
		ctx = s.logg.WithReferenceID(ctx, params.ReferenceID)
	}

	if params.Status != "paid" {
		return s.fail(ctx, params.ReferenceID)
	}
	if !s.verifier.VerifySignature(params) {
		s.botMetrics.IncSettlement("bad_signature")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "payment signature verification failed")
	}
	return s.settle(ctx, params.ReferenceID)
}

func (s *Service) settle(ctx context.Context, referenceID string) (*Outcome, error) {
	outcome := &Outcome{ReferenceID: referenceID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)

		changed, err := ordersRepo.Settle(ctx, referenceID)
		if err != nil {
			return err
		}
		if changed == 0 {
			// Already settled or unknown reference: a replay, not an error.
			lines, err := ordersRepo.FindByReference(ctx, referenceID)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "unknown payment reference")
			}
			outcome.Lines = lines
			return nil
		}

		lines, err := ordersRepo.FindByReference(ctx, referenceID)
		if err != nil {
			return err
		}
		outcome.Settled = true
		outcome.Lines = lines
		return s.releaseUser(ctx, tx, lines[0].Phone)
	})
	if err != nil {
		return nil, err
	}

	if outcome.Settled {
		s.botMetrics.IncSettlement("completed")
		line := outcome.Lines[0]
		body := settledMessage(line.CustomerName, outcome.Lines, line.ChargedTotal.StringFixed(2), line.Address)
		if err := s.notify.SendText(ctx, line.Phone, body, "payment_confirmation"); err != nil && s.logg != nil {
			s.logg.Error(ctx, "payment confirmation send failed", err)
		}
	} else {
		s.botMetrics.IncSettlement("replay")
	}
	return outcome, nil
}

func (s *Service) fail(ctx context.Context, referenceID string) (*Outcome, error) {
	outcome := &Outcome{ReferenceID: referenceID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		changed, err := ordersRepo.Fail(ctx, referenceID)
		if err != nil {
			return err
		}
		if changed == 0 {
			return nil
		}
		lines, err := ordersRepo.FindByReference(ctx, referenceID)
		if err != nil {
			return err
		}
		outcome.Failed = true
		outcome.Lines = lines
		return s.releaseUser(ctx, tx, lines[0].Phone)
	})
	if err != nil {
		return nil, err
	}

	if outcome.Failed {
		s.botMetrics.IncSettlement("failed")
		line := outcome.Lines[0]
		body := fmt.Sprintf("Dear *%s*, your payment was not completed. Please try again.", line.CustomerName)
		if err := s.notify.SendText(ctx, line.Phone, body, "payment_failed"); err != nil && s.logg != nil {
			s.logg.Error(ctx, "payment failure send failed", err)
		}
	}
	return outcome, nil
}

// releaseUser moves the buyer out of payment_in_progress once the in-flight
// reference resolves.
func (s *Service) releaseUser(ctx context.Context, tx *gorm.DB, phone string) error {
	usersRepo := s.usersRepo.WithTx(tx)
	user, err := usersRepo.FindForUpdate(ctx, phone)
	if err != nil || user == nil {
		return err
	}
	if user.State != enums.StatePaymentInProgress {
		return nil
	}
	user.State = enums.StateIdle
	user.PaymentReference = nil
	user.PaymentMethod = nil
	return usersRepo.Save(ctx, user)
}

func settledMessage(name string, lines []models.Order, total, address string) string {
	body := fmt.Sprintf("Dear *%s*,\n\nThank you for your payment! Your order is confirmed:\n\n📦 *Order Details*:\n", name)
	for _, line := range lines {
		body += fmt.Sprintf("🛒 %s x%d: ₹%s\n", line.ComboName, line.Quantity, line.LineAmount.StringFixed(2))
	}
	body += fmt.Sprintf("\n💰 Total Amount: ₹%s\n📍 Delivery Address: %s\n", total, address)
	body += "🚚 *Delivery Schedule*: Your order will be delivered by tomorrow 9 AM.\n\n"
	body += "We appreciate your support for fresh, sustainable produce!\n\nBest regards,\nThe Balutedaar Team"
	return body
}
