package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/enums"
)

// Order is one combo line of a checkout. All lines of one checkout share a
// reference id; ChargedTotal carries the discounted grand total of that
// checkout, identical on every line.
type Order struct {
	ID            uint                `gorm:"column:id;primaryKey;autoIncrement"`
	ReferenceID   string              `gorm:"column:reference_id;not null;index"`
	Phone         string              `gorm:"column:user_phone;not null;index"`
	CustomerName  string              `gorm:"column:customer_name;not null"`
	ComboID       string              `gorm:"column:combo_id;not null"`
	ComboName     string              `gorm:"column:combo_name;not null"`
	UnitPrice     decimal.Decimal     `gorm:"column:unit_price;type:decimal(10,2);not null"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	LineAmount    decimal.Decimal     `gorm:"column:line_amount;type:decimal(10,2);not null"`
	ChargedTotal  decimal.Decimal     `gorm:"column:charged_total;type:decimal(10,2);not null"`
	Address       string              `gorm:"column:address;not null"`
	Pincode       string              `gorm:"column:pincode;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'Pending'"`
	OrderStatus   enums.OrderStatus   `gorm:"column:order_status;not null;default:'Placed'"`
	ReferralCode  *string             `gorm:"column:referral_code"`
	DeliveryDate  string              `gorm:"column:delivery_date;not null;index"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
