package models

import "time"

// ReferralCode is an invite code issued to a user, scoped to one calendar
// month. A code deactivates after its usage limit or age limit is reached.
type ReferralCode struct {
	Code        string    `gorm:"column:code;primaryKey"`
	IssuerPhone string    `gorm:"column:issuer_phone;not null;index"`
	Month       string    `gorm:"column:month;not null"`
	UsageCount  int       `gorm:"column:usage_count;not null;default:0"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ReferralReward records one successful redemption of a code.
type ReferralReward struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement"`
	IssuerPhone    string    `gorm:"column:issuer_phone;not null;index"`
	Code           string    `gorm:"column:code;not null;index"`
	RedeemerPhone  string    `gorm:"column:redeemer_phone;not null"`
	Points         int       `gorm:"column:points;not null"`
	OrderReference string    `gorm:"column:order_reference;not null"`
	Month          string    `gorm:"column:month;not null;index"`
	FreeBox        bool      `gorm:"column:free_box;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
