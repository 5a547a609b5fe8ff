package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one selected combo line. Name and unit price are snapshots
// taken at selection time and never re-resolved.
type CartItem struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Phone     string          `gorm:"column:phone;not null;index"`
	ComboID   string          `gorm:"column:combo_id;not null"`
	ComboName string          `gorm:"column:combo_name;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Subtotal is quantity times the snapshot unit price.
func (c CartItem) Subtotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
