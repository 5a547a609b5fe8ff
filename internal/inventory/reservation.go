package inventory

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
)

// ReservationRequest asks for boxes of one combo in one slot.
type ReservationRequest struct {
	Pincode      string
	DeliveryDate string
	ComboID      string
	ComboName    string
	Qty          int
}

// ReservationResult reports one request's outcome. Reason is set only when
// Reserved is false.
type ReservationResult struct {
	ComboID   string
	ComboName string
	Reserved  bool
	Reason    string
}

// Reserve books stock for each request with a conditional decrement, so
// remaining stock never goes negative under concurrent checkouts. It must
// run inside the checkout transaction: a failed line surfaces in its result
// and the caller aborts, rolling back the lines already booked.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	results := make([]ReservationResult, 0, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reservation qty must be positive for combo %s", req.ComboID))
		}

		res := tx.WithContext(ctx).
			Model(&models.InventorySlot{}).
			Where("pincode = ? AND delivery_date = ? AND combo_id = ?", req.Pincode, req.DeliveryDate, req.ComboID).
			Where("total_boxes - booked_boxes >= ?", req.Qty).
			UpdateColumn("booked_boxes", gorm.Expr("booked_boxes + ?", req.Qty))
		if res.Error != nil {
			return nil, res.Error
		}

		result := ReservationResult{ComboID: req.ComboID, ComboName: req.ComboName, Reserved: res.RowsAffected == 1}
		if !result.Reserved {
			result.Reason = fmt.Sprintf("insufficient stock for %s", req.ComboName)
		}
		results = append(results, result)
	}
	return results, nil
}
