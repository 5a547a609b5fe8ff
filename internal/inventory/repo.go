package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
)

// Repository owns inventory_slots rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an inventory repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Remaining returns the boxes still available for one slot. A missing slot
// has zero stock.
func (r *Repository) Remaining(ctx context.Context, pincode, deliveryDate, comboID string) (int, error) {
	var slot models.InventorySlot
	err := r.db.WithContext(ctx).
		First(&slot, "pincode = ? AND delivery_date = ? AND combo_id = ?", pincode, deliveryDate, comboID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return slot.Remaining(), nil
}

// Upsert sets the total stock for a slot, creating it when absent. Booked
// counts are preserved on conflict.
func (r *Repository) Upsert(ctx context.Context, slot *models.InventorySlot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pincode"}, {Name: "delivery_date"}, {Name: "combo_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_boxes", "updated_at"}),
		}).
		Create(slot).Error
}

// SlotsForDate lists every slot scoped to the delivery date.
func (r *Repository) SlotsForDate(ctx context.Context, deliveryDate string) ([]models.InventorySlot, error) {
	var slots []models.InventorySlot
	if err := r.db.WithContext(ctx).
		Where("delivery_date = ?", deliveryDate).
		Order("pincode, combo_id").
		Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}
