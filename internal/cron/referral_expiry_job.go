package cron

import (
	"context"
	"fmt"

	"github.com/rushikeshnagarkar/balutedaar-app/internal/referrals"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

// referralExpiryJob deactivates referral codes past their age limit, so
// expiry does not rely solely on the lazy check at validation time.
type referralExpiryJob struct {
	logg        *logger.Logger
	referralSvc *referrals.Service
}

// NewReferralExpiryJob constructs the referral expiry job.
func NewReferralExpiryJob(logg *logger.Logger, referralSvc *referrals.Service) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if referralSvc == nil {
		return nil, fmt.Errorf("referrals service required")
	}
	return &referralExpiryJob{logg: logg, referralSvc: referralSvc}, nil
}

func (j *referralExpiryJob) Name() string { return "referral-expiry" }

func (j *referralExpiryJob) Run(ctx context.Context) error {
	expired, err := j.referralSvc.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("expire stale referral codes: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "expired", expired), "stale referral codes deactivated")
	return nil
}
