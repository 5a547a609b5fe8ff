package cart

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
)

// Repository owns cart_items rows. Carts are ephemeral; every product
// selection replaces the whole cart.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Replace deletes every existing line for the phone and inserts the new
// ones. No stale line survives a second selection.
func (r *Repository) Replace(ctx context.Context, phone string, items []models.CartItem) error {
	if err := r.clear(ctx, phone); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].Phone = phone
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// Items returns the cart lines for the phone in insertion order.
func (r *Repository) Items(ctx context.Context, phone string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Clear removes every line for the phone.
func (r *Repository) Clear(ctx context.Context, phone string) error {
	return r.clear(ctx, phone)
}

func (r *Repository) clear(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Delete(&models.CartItem{}).Error
}

// Subtotal sums quantity times snapshot unit price across the lines.
func Subtotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
