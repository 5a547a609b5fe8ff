package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Combo is a dynamic catalog entry. The resolver prefers this table over the
// static fallback catalog.
type Combo struct {
	ComboID   string          `gorm:"column:combo_id;primaryKey"`
	Name      string          `gorm:"column:combo_name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
