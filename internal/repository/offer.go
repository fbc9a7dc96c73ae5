package repository

import (
	"context"

	"gig-marketplace/internal/model"

	"gorm.io/gorm"
)

type OfferRepository interface {
	Create(ctx context.Context, offer *model.Offer) error
	FindByID(ctx context.Context, offerID string) (*model.Offer, error)
	FindByGigAndTier(ctx context.Context, tx *gorm.DB, gigID string, tier model.Tier) (*model.Offer, error)
	ListByGig(ctx context.Context, gigID string) ([]*model.Offer, error)
}

type offerRepoImpl struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepoImpl{
		db: db,
	}
}

func (r *offerRepoImpl) Create(ctx context.Context, offer *model.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *offerRepoImpl) FindByID(ctx context.Context, offerID string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.WithContext(ctx).
		Where("id = ?", offerID).
		First(&offer).Error

	if err != nil {
		return nil, err
	}

	return &offer, nil
}

// FindByGigAndTier runs on tx when given so the lookup shares the caller's
// transaction.
func (r *offerRepoImpl) FindByGigAndTier(ctx context.Context, tx *gorm.DB, gigID string, tier model.Tier) (*model.Offer, error) {
	if tx == nil {
		tx = r.db
	}

	var offer model.Offer
	err := tx.WithContext(ctx).
		Where("gig_id = ? AND tier = ?", gigID, tier).
		First(&offer).Error

	if err != nil {
		return nil, err
	}

	return &offer, nil
}

func (r *offerRepoImpl) ListByGig(ctx context.Context, gigID string) ([]*model.Offer, error) {
	var offers []*model.Offer
	err := r.db.WithContext(ctx).
		Where("gig_id = ?", gigID).
		Order("price ASC").
		Find(&offers).
		Error

	if err != nil {
		return nil, err
	}

	return offers, nil
}
