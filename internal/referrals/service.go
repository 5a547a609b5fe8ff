package referrals

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
)

const codeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
const codeLength = 5

// RedeemOutcome reports one redemption: the reward row written and whether
// this was the milestone redemption that earns the issuer a free box.
type RedeemOutcome struct {
	Reward       *models.ReferralReward
	MilestoneHit bool
}

// Service issues, validates and redeems referral codes. All mutating
// operations expect to run inside the caller's transaction via WithTx.
type Service struct {
	repo *Repository
	cfg  config.ReferralConfig
	now  func() time.Time
}

// NewService builds the referral engine.
func NewService(repo *Repository, cfg config.ReferralConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("referrals repository required")
	}
	return &Service{repo: repo, cfg: cfg, now: time.Now}, nil
}

// WithNow overrides the clock. Test hook.
func (s *Service) WithNow(now func() time.Time) *Service {
	return &Service{repo: s.repo, cfg: s.cfg, now: now}
}

// WithTx returns a service whose repo is bound to the given transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{repo: s.repo.WithTx(tx), cfg: s.cfg, now: s.now}
}

func (s *Service) month() string {
	return s.now().Format("2006-01")
}

// Issue deactivates the issuer's prior codes and creates a fresh 5-character
// code unique among active codes, scoped to the current calendar month.
func (s *Service) Issue(ctx context.Context, issuerPhone string) (*models.ReferralCode, error) {
	if err := s.repo.DeactivateIssuerCodes(ctx, issuerPhone); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 10; attempt++ {
		code, err := randomCode()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate referral code")
		}
		taken, err := s.repo.ActiveCodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}
		rec := &models.ReferralCode{
			Code:        code,
			IssuerPhone: issuerPhone,
			Month:       s.month(),
			Active:      true,
		}
		if err := s.repo.CreateCode(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not generate a unique referral code")
}

// Validate checks a candidate code for a redeemer and returns the code row
// on success. Failure reasons map to coded errors: unknown, inactive or
// wrong-month codes are not found; self-referral, expiry, usage limit and
// prior redemption are conflicts. Expiry also deactivates the code.
func (s *Service) Validate(ctx context.Context, code, redeemerPhone string) (*models.ReferralCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	rec, err := s.repo.FindCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if rec == nil || !rec.Active || rec.Month != s.month() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "referral code is not valid this month")
	}
	if rec.IssuerPhone == redeemerPhone {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you cannot use your own referral code")
	}
	if s.now().Sub(rec.CreatedAt) > time.Duration(s.cfg.MaxAgeDays)*24*time.Hour {
		rec.Active = false
		if err := s.repo.SaveCode(ctx, rec); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "referral code has expired")
	}
	if rec.UsageCount >= s.cfg.UsageLimit {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "referral code has reached its usage limit")
	}
	used, err := s.repo.RedeemedBy(ctx, code, redeemerPhone)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already used this referral code")
	}
	return rec, nil
}

// Redeem applies one successful redemption: bumps the usage counter,
// deactivates the code at the limit, credits the issuer's reward points and
// records the reward row tied to the order reference. The fifth cumulative
// reward on a code flags a free-box milestone.
func (s *Service) Redeem(ctx context.Context, rec *models.ReferralCode, redeemerPhone, orderReference string) (*RedeemOutcome, error) {
	rec.UsageCount++
	if rec.UsageCount >= s.cfg.UsageLimit {
		rec.Active = false
	}
	if err := s.repo.SaveCode(ctx, rec); err != nil {
		return nil, err
	}

	priorRewards, err := s.repo.CountRewardsForCode(ctx, rec.Code)
	if err != nil {
		return nil, err
	}
	milestone := int(priorRewards)+1 == s.cfg.MilestoneSize

	reward := &models.ReferralReward{
		IssuerPhone:    rec.IssuerPhone,
		Code:           rec.Code,
		RedeemerPhone:  redeemerPhone,
		Points:         s.cfg.RewardPoints,
		OrderReference: orderReference,
		Month:          s.month(),
		FreeBox:        milestone,
	}
	if err := s.repo.CreateReward(ctx, reward); err != nil {
		return nil, err
	}
	return &RedeemOutcome{Reward: reward, MilestoneHit: milestone}, nil
}

// TierFor returns the user's tiered discount percentage for the current
// month, derived from their own successful referrals.
func (s *Service) TierFor(ctx context.Context, issuerPhone string) (int, error) {
	count, err := s.repo.CountIssuerRewardsInMonth(ctx, issuerPhone, s.month())
	if err != nil {
		return 0, err
	}
	return TierPercent(int(count)), nil
}

// FlatDiscount is the configured flat referral discount amount.
func (s *Service) FlatDiscount() decimal.Decimal {
	return s.cfg.FlatDiscountAmount()
}

// ExpireStale deactivates codes older than the configured age limit.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-time.Duration(s.cfg.MaxAgeDays) * 24 * time.Hour)
	return s.repo.DeactivateOlderThan(ctx, cutoff)
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(out), nil
}
