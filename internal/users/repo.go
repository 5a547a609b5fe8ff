package users

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/enums"
)

// Repository exposes user persistence. All conversation-state transitions go
// through here so a transition is always one UPDATE against the locked row.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a fresh user in the initial state.
func (r *Repository) Create(ctx context.Context, phone string, state enums.ConversationState) (*models.User, error) {
	user := &models.User{Phone: phone, State: state}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByPhone loads a user without locking.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "phone = ?", phone).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindForUpdate loads a user under a row lock so concurrent webhook
// deliveries for the same phone serialize. Returns (nil, nil) when the user
// does not exist. SQLite has no row locks, so the clause is only added for
// dialects that support it.
func (r *Repository) FindForUpdate(ctx context.Context, phone string) (*models.User, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var user models.User
	if err := q.First(&user, "phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Save persists all columns of the user row.
func (r *Repository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SetState moves the conversation to the given state without touching other
// columns.
func (r *Repository) SetState(ctx context.Context, phone string, state enums.ConversationState) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("phone = ?", phone).
		UpdateColumn("conversation_state", state).Error
}

// AddLoyaltyPoints credits points to the user's balance.
func (r *Repository) AddLoyaltyPoints(ctx context.Context, phone string, points int) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("phone = ?", phone).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
}

// ResetForNewOrder clears order-scoped fields ahead of a fresh browse.
// Name, the saved delivery address, loyalty points and any issued referral
// code identity survive so returning users can reuse them.
func (r *Repository) ResetForNewOrder(ctx context.Context, user *models.User, keepPincode bool) error {
	user.PaymentMethod = nil
	user.PaymentReference = nil
	user.ActiveReferralCode = nil
	if !keepPincode {
		user.Pincode = nil
	}
	return r.Save(ctx, user)
}
