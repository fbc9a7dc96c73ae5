package repository

import (
	"context"
	"time"

	"gig-marketplace/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, userID string) (*model.User, error)
	GetStripeAccountID(ctx context.Context, userID string) (string, error)
	SetStripeAccount(ctx context.Context, userID, accountID string) error
	MarkStripeSetupComplete(ctx context.Context, userID string) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepoImpl) Get(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetStripeAccountID returns "" with no error when the user exists but has
// not connected a payout account.
func (r *userRepoImpl) GetStripeAccountID(ctx context.Context, userID string) (string, error) {
	user, err := r.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	return user.StripeAccountID, nil
}

func (r *userRepoImpl) SetStripeAccount(ctx context.Context, userID, accountID string) error {
	// a new account has to be verified again
	return r.update(ctx, userID, map[string]interface{}{
		"stripe_account_id":             accountID,
		"stripe_account_setup_complete": false,
		"updated_at":                    time.Now(),
	})
}

func (r *userRepoImpl) MarkStripeSetupComplete(ctx context.Context, userID string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"stripe_account_setup_complete": true,
		"updated_at":                    time.Now(),
	})
}

func (r *userRepoImpl) update(ctx context.Context, userID string, values map[string]interface{}) error {
	result := r.db.
		WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(values)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
