package service

import (
	"context"
	"errors"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/client"
	"gig-marketplace/internal/model"
	"gig-marketplace/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SellerService manages the processor sub-account that receives a
// seller's payouts.
type SellerService interface {
	RegisterSeller(ctx context.Context, username string) (string, error)
	GetSeller(ctx context.Context, userID string) (*model.User, error)
	ConnectPayoutAccount(ctx context.Context, userID, accountID string) error
	RefreshPayoutStatus(ctx context.Context, userID string) (*model.User, error)
}

type sellerServiceImpl struct {
	processor client.PaymentProcessor
	userRepo  repository.UserRepository
	log       *zap.Logger
}

func NewSellerService(
	processor client.PaymentProcessor,
	userRepo repository.UserRepository,
	log *zap.Logger,
) SellerService {
	return &sellerServiceImpl{
		processor: processor,
		userRepo:  userRepo,
		log:       log.Named("seller"),
	}
}

func (s *sellerServiceImpl) RegisterSeller(ctx context.Context, username string) (string, error) {
	user := &model.User{
		ID:       uuid.NewString(),
		Username: username,
	}
	err := s.userRepo.Create(ctx, user)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", apperr.BadInput("username "+username+" is taken", err)
	}
	if err != nil {
		return "", apperr.StoreFailure("create seller", err)
	}

	return user.ID, nil
}

func (s *sellerServiceImpl) GetSeller(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user " + userID + " not found")
	}
	if err != nil {
		return nil, apperr.StoreFailure("get seller", err)
	}
	return user, nil
}

func (s *sellerServiceImpl) ConnectPayoutAccount(ctx context.Context, userID, accountID string) error {
	err := s.userRepo.SetStripeAccount(ctx, userID, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("user " + userID + " not found")
	}
	if err != nil {
		return apperr.StoreFailure("store payout account", err)
	}

	s.log.Info("payout account connected", zap.String("user_id", userID), zap.String("account_id", accountID))
	return nil
}

func (s *sellerServiceImpl) RefreshPayoutStatus(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.GetSeller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeAccountID == "" {
		return nil, apperr.NotFound("user " + userID + " has no payout account")
	}

	enabled, err := s.processor.ChargesEnabled(ctx, user.StripeAccountID)
	if err != nil {
		return nil, apperr.ProcessorUnavailable("could not retrieve payout account", err)
	}
	if !enabled {
		return nil, apperr.PayoutAccountNotReady(user.StripeAccountID)
	}

	if err := s.userRepo.MarkStripeSetupComplete(ctx, userID); err != nil {
		return nil, apperr.StoreFailure("mark payout setup complete", err)
	}
	user.StripeAccountSetupComplete = true

	return user, nil
}
