package models

import (
	"time"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/enums"
)

// User is one conversation, keyed by phone number. The conversation_state
// column is authoritative for which step the user is waiting on.
type User struct {
	Phone              string                  `gorm:"column:phone;primaryKey"`
	Name               *string                 `gorm:"column:name"`
	Address            *string                 `gorm:"column:address"`
	Pincode            *string                 `gorm:"column:pincode"`
	State              enums.ConversationState `gorm:"column:conversation_state;not null;default:'new'"`
	LoyaltyPoints      int                     `gorm:"column:loyalty_points;not null;default:0"`
	ActiveReferralCode *string                 `gorm:"column:active_referral_code"`
	PaymentMethod      *enums.PaymentMethod    `gorm:"column:payment_method"`
	PaymentReference   *string                 `gorm:"column:payment_reference"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// HasName reports whether a usable display name is on file.
func (u *User) HasName() bool {
	return u != nil && u.Name != nil && *u.Name != ""
}

// HasAddress reports whether a delivery address is on file.
func (u *User) HasAddress() bool {
	return u != nil && u.Address != nil && *u.Address != ""
}
