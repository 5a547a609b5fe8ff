package models

import "time"

// InventorySlot tracks stock for one combo in one pincode on one delivery
// date. Remaining stock is TotalBoxes minus BookedBoxes and never negative.
type InventorySlot struct {
	Pincode      string    `gorm:"column:pincode;primaryKey"`
	DeliveryDate string    `gorm:"column:delivery_date;primaryKey"`
	ComboID      string    `gorm:"column:combo_id;primaryKey"`
	TotalBoxes   int       `gorm:"column:total_boxes;not null;default:0"`
	BookedBoxes  int       `gorm:"column:booked_boxes;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Remaining is the number of boxes still available to reserve.
func (s InventorySlot) Remaining() int {
	return s.TotalBoxes - s.BookedBoxes
}
