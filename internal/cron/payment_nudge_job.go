package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/rushikeshnagarkar/balutedaar-app/internal/orders"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/gateway"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

const defaultNudgeAfter = 2 * time.Hour

type nudgeSender interface {
	SendText(ctx context.Context, to, body, tag string) error
}

// paymentNudgeJob reminds users whose Pay Now orders have sat Pending past
// the cutoff. One reminder per reference id per cycle; send failures are
// aggregated so one bad number does not skip the rest.
type paymentNudgeJob struct {
	logg       *logger.Logger
	ordersRepo *orders.Repository
	sender     nudgeSender
	nudgeAfter time.Duration
	now        func() time.Time
}

// NewPaymentNudgeJob constructs the pending-payment reminder job.
func NewPaymentNudgeJob(logg *logger.Logger, ordersRepo *orders.Repository, sender nudgeSender, nudgeAfter time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender required")
	}
	if nudgeAfter <= 0 {
		nudgeAfter = defaultNudgeAfter
	}
	return &paymentNudgeJob{
		logg:       logg,
		ordersRepo: ordersRepo,
		sender:     sender,
		nudgeAfter: nudgeAfter,
		now:        time.Now,
	}, nil
}

func (j *paymentNudgeJob) Name() string { return "payment-nudge" }

func (j *paymentNudgeJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.nudgeAfter)
	pending, err := j.ordersRepo.PendingOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("load pending orders: %w", err)
	}

	type target struct{ phone, name string }
	byReference := make(map[string]target, len(pending))
	for _, line := range pending {
		if _, ok := byReference[line.ReferenceID]; !ok {
			byReference[line.ReferenceID] = target{phone: line.Phone, name: line.CustomerName}
		}
	}

	var errs error
	nudged := 0
	for referenceID, t := range byReference {
		body := fmt.Sprintf("Dear *%s*, your Balutedaar order is still awaiting payment. Complete it soon so we can schedule your delivery! 🚚", t.name)
		if err := j.sender.SendText(ctx, t.phone, body, gateway.TagNudge); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("nudge %s: %w", referenceID, err))
			continue
		}
		nudged++
	}
	j.logg.Info(j.logg.WithField(ctx, "nudged", nudged), "pending payment reminders sent")
	return errs
}
