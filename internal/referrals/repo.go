package referrals

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
)

// Repository owns referral_codes and referral_rewards rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a referrals repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindCode loads a code regardless of its active flag. Returns (nil, nil)
// when absent.
func (r *Repository) FindCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	var rec models.ReferralCode
	if err := r.db.WithContext(ctx).First(&rec, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ActiveCodeExists reports whether any active code carries this value.
func (r *Repository) ActiveCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralCode{}).
		Where("code = ? AND active = ?", code, true).
		Count(&count).Error
	return count > 0, err
}

// CreateCode inserts a freshly issued code.
func (r *Repository) CreateCode(ctx context.Context, rec *models.ReferralCode) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// SaveCode persists usage-count and active-flag changes.
func (r *Repository) SaveCode(ctx context.Context, rec *models.ReferralCode) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

// DeactivateIssuerCodes flips every active code owned by the issuer.
func (r *Repository) DeactivateIssuerCodes(ctx context.Context, issuerPhone string) error {
	return r.db.WithContext(ctx).
		Model(&models.ReferralCode{}).
		Where("issuer_phone = ? AND active = ?", issuerPhone, true).
		UpdateColumn("active", false).Error
}

// DeactivateOlderThan flips every active code created before the cutoff and
// returns how many rows changed.
func (r *Repository) DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralCode{}).
		Where("active = ? AND created_at < ?", true, cutoff).
		UpdateColumn("active", false)
	return res.RowsAffected, res.Error
}

// RedeemedBy reports whether the redeemer already has a reward row for this
// code.
func (r *Repository) RedeemedBy(ctx context.Context, code, redeemerPhone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralReward{}).
		Where("code = ? AND redeemer_phone = ?", code, redeemerPhone).
		Count(&count).Error
	return count > 0, err
}

// CreateReward records one successful redemption.
func (r *Repository) CreateReward(ctx context.Context, reward *models.ReferralReward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

// CountRewardsForCode counts cumulative rewards granted against one code.
func (r *Repository) CountRewardsForCode(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralReward{}).
		Where("code = ?", code).
		Count(&count).Error
	return count, err
}

// CountIssuerRewardsInMonth counts the issuer's successful referrals in the
// given YYYY-MM month. This drives the tiered discount.
func (r *Repository) CountIssuerRewardsInMonth(ctx context.Context, issuerPhone, month string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralReward{}).
		Where("issuer_phone = ? AND month = ?", issuerPhone, month).
		Count(&count).Error
	return count, err
}
