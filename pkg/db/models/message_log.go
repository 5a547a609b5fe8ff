package models

import "time"

// MessageLog is the append-only audit trail of outbound send attempts. It is
// never consulted by conversation logic.
type MessageLog struct {
	ID                uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Recipient         string    `gorm:"column:recipient;not null;index"`
	ProviderMessageID string    `gorm:"column:provider_message_id;not null;default:'unknown'"`
	StatusCode        int       `gorm:"column:status_code;not null"`
	Tag               string    `gorm:"column:tag;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}
