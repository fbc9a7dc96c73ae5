package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/client"
	"gig-marketplace/internal/dto"
	"gig-marketplace/internal/model"
	"gig-marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckoutService starts the payment for an offer. It never writes an
// order; that only happens once the processor confirms the payment.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, buyerID string, req *dto.CheckoutSessionRequest) (*dto.CheckoutSessionResponse, error)
}

type CheckoutConfig struct {
	BaseURL            string
	Currency           string
	PlatformFeePercent int64
}

type checkoutServiceImpl struct {
	processor client.PaymentProcessor
	userRepo  repository.UserRepository
	cfg       CheckoutConfig
	log       *zap.Logger
}

func NewCheckoutService(
	processor client.PaymentProcessor,
	userRepo repository.UserRepository,
	cfg CheckoutConfig,
	log *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		processor: processor,
		userRepo:  userRepo,
		cfg:       cfg,
		log:       log.Named("checkout"),
	}
}

func (s *checkoutServiceImpl) CreateCheckoutSession(ctx context.Context, buyerID string, req *dto.CheckoutSessionRequest) (*dto.CheckoutSessionResponse, error) {
	price, err := s.processor.RetrievePrice(ctx, req.PriceID)
	if err != nil {
		return nil, apperr.PriceInvalid("price "+req.PriceID+" could not be retrieved", err)
	}
	if price.UnitAmount <= 0 {
		return nil, apperr.PriceInvalid("price "+req.PriceID+" has no positive unit amount", nil)
	}

	accountID, err := s.userRepo.GetStripeAccountID(ctx, req.SellerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.StoreFailure("look up seller payout account", err)
	}
	if accountID == "" {
		return nil, apperr.SellerPayoutNotConfigured(req.SellerID)
	}

	currency := s.cfg.Currency
	if price.Currency != "" {
		currency = strings.ToLower(price.Currency)
	}

	metadata := model.SessionMetadata{
		OfferID:  req.OfferID,
		GigID:    req.GigID,
		BuyerID:  buyerID,
		SellerID: req.SellerID,
		Tier:     model.Tier(req.Tier),
	}

	session, err := s.processor.CreateCheckoutSession(ctx, client.CheckoutSessionParams{
		AccountID:            accountID,
		Title:                req.Title,
		UnitAmount:           price.UnitAmount,
		Currency:             currency,
		ApplicationFeeAmount: PlatformFee(price.UnitAmount, s.cfg.PlatformFeePercent),
		Metadata:             metadata.ToMap(),
		SuccessURL:           s.cfg.BaseURL,
		CancelURL:            s.cfg.BaseURL,
	})
	if err != nil {
		return nil, apperr.PaymentSessionCreationFailed(err)
	}
	if session.URL == "" {
		return nil, apperr.PaymentSessionCreationFailed(fmt.Errorf("session %s has no redirect url", session.ID))
	}

	s.log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("offer_id", req.OfferID),
		zap.String("buyer_id", buyerID),
	)

	return &dto.CheckoutSessionResponse{URL: session.URL}, nil
}

// PlatformFee is percent of unitAmount, rounded down to a whole minor unit.
func PlatformFee(unitAmount, percent int64) int64 {
	return decimal.NewFromInt(unitAmount).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}
