package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/enums"
)

// Repository owns orders rows. Rows are immutable after checkout except for
// the status transitions below.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateLines inserts every line of one checkout.
func (r *Repository) CreateLines(ctx context.Context, lines []models.Order) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// FindByReference loads all lines sharing one checkout reference id.
func (r *Repository) FindByReference(ctx context.Context, referenceID string) ([]models.Order, error) {
	var lines []models.Order
	if err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("id").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// ByDeliveryDate lists orders scoped to one delivery date, newest first.
func (r *Repository) ByDeliveryDate(ctx context.Context, deliveryDate string) ([]models.Order, error) {
	var lines []models.Order
	if err := r.db.WithContext(ctx).
		Where("delivery_date = ?", deliveryDate).
		Order("created_at DESC, id DESC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// PendingOlderThan lists distinct reference ids of Pay Now checkouts still
// Pending past the cutoff. Drives the payment nudge job.
func (r *Repository) PendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var lines []models.Order
	if err := r.db.WithContext(ctx).
		Where("payment_status = ? AND payment_method = ? AND created_at < ?",
			enums.PaymentStatusPending, enums.PaymentMethodPayNow, cutoff).
		Order("id").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// Settle moves every still-Pending line of the reference to
// Completed/Confirmed and reports how many rows changed. A second call for
// the same reference changes zero rows, which makes callback replays no-ops.
func (r *Repository) Settle(ctx context.Context, referenceID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("reference_id = ? AND payment_status = ?", referenceID, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusCompleted,
			"order_status":   enums.OrderStatusConfirmed,
		})
	return res.RowsAffected, res.Error
}

// Fail marks every still-Pending line of the reference as Failed.
func (r *Repository) Fail(ctx context.Context, referenceID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("reference_id = ? AND payment_status = ?", referenceID, enums.PaymentStatusPending).
		UpdateColumn("payment_status", enums.PaymentStatusFailed)
	return res.RowsAffected, res.Error
}
