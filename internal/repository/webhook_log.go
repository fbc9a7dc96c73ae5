package repository

import (
	"context"

	"gig-marketplace/internal/model"

	"gorm.io/gorm"
)

type WebhookLogRepository interface {
	Append(ctx context.Context, log *model.WebhookLog) error
}

type webhookLogRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepositoryImpl{db: db}
}

func (r *webhookLogRepositoryImpl) Append(ctx context.Context, log *model.WebhookLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
