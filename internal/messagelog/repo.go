package messagelog

import (
	"context"

	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

// Repository persists the outbound send audit trail. It satisfies the
// gateway's AuditLogger; failures are logged and never propagate into the
// send path.
type Repository struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRepository constructs the audit repo.
func NewRepository(db *gorm.DB, logg *logger.Logger) *Repository {
	return &Repository{db: db, logg: logg}
}

// LogSend appends one send attempt.
func (r *Repository) LogSend(ctx context.Context, recipient, providerMessageID string, statusCode int, tag string) {
	if providerMessageID == "" {
		providerMessageID = "unknown"
	}
	entry := models.MessageLog{
		Recipient:         recipient,
		ProviderMessageID: providerMessageID,
		StatusCode:        statusCode,
		Tag:               tag,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil && r.logg != nil {
		r.logg.Error(ctx, "send audit insert failed", err)
	}
}

// Recent lists the latest audit entries for a recipient, newest first.
func (r *Repository) Recent(ctx context.Context, recipient string, limit int) ([]models.MessageLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.MessageLog
	if err := r.db.WithContext(ctx).
		Where("recipient = ?", recipient).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
