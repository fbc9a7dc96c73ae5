package repository

import (
	"context"

	"gig-marketplace/internal/model"

	"gorm.io/gorm"
)

// OrderRepository has no update or delete: orders are append-only.
type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error)
	ListByGig(ctx context.Context, gigID string) ([]*model.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return r.conn(tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error) {
	return r.listBy(ctx, "buyer_id", buyerID)
}

func (r *orderRepoImpl) ListByGig(ctx context.Context, gigID string) ([]*model.Order, error) {
	return r.listBy(ctx, "gig_id", gigID)
}

func (r *orderRepoImpl) ListBySeller(ctx context.Context, sellerID string) ([]*model.Order, error) {
	return r.listBy(ctx, "seller_id", sellerID)
}

func (r *orderRepoImpl) listBy(ctx context.Context, column, value string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where(column+" = ?", value).
		Order("order_date DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}
