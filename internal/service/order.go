package service

import (
	"context"
	"errors"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/model"
	"gig-marketplace/internal/repository"

	"gorm.io/gorm"
)

// OrderService is read-only. Orders are written by the OrderReconciler.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error)
	ListByGig(ctx context.Context, gigID string) ([]*model.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*model.Order, error)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
	}
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order " + orderID + " not found")
	}
	if err != nil {
		return nil, apperr.StoreFailure("get order", err)
	}
	return order, nil
}

func (s *orderServiceImpl) ListByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error) {
	return s.list(ctx, s.orderRepo.ListByBuyer, buyerID)
}

func (s *orderServiceImpl) ListByGig(ctx context.Context, gigID string) ([]*model.Order, error) {
	return s.list(ctx, s.orderRepo.ListByGig, gigID)
}

func (s *orderServiceImpl) ListBySeller(ctx context.Context, sellerID string) ([]*model.Order, error) {
	return s.list(ctx, s.orderRepo.ListBySeller, sellerID)
}

func (s *orderServiceImpl) list(ctx context.Context, fn func(context.Context, string) ([]*model.Order, error), key string) ([]*model.Order, error) {
	orders, err := fn(ctx, key)
	if err != nil {
		return nil, apperr.StoreFailure("list orders", err)
	}
	return orders, nil
}
