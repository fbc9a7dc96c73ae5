package service

import (
	"context"
	"errors"
	"fmt"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/client"
	"gig-marketplace/internal/dto"
	"gig-marketplace/internal/model"
	"gig-marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OfferService interface {
	CreateOffer(ctx context.Context, sellerID string, req *dto.CreateOfferRequest) (*model.Offer, error)
	GetOffer(ctx context.Context, gigID string, tier model.Tier) (*model.Offer, error)
	ListOffersByGig(ctx context.Context, gigID string) ([]*model.Offer, error)
}

type offerServiceImpl struct {
	processor client.PaymentProcessor
	offerRepo repository.OfferRepository
	currency  string
	log       *zap.Logger
}

func NewOfferService(
	processor client.PaymentProcessor,
	offerRepo repository.OfferRepository,
	currency string,
	log *zap.Logger,
) OfferService {
	return &offerServiceImpl{
		processor: processor,
		offerRepo: offerRepo,
		currency:  currency,
		log:       log.Named("offer"),
	}
}

var hundred = decimal.NewFromInt(100)

func (s *offerServiceImpl) CreateOffer(ctx context.Context, sellerID string, req *dto.CreateOfferRequest) (*model.Offer, error) {
	tier := model.Tier(req.Tier)
	if !tier.Valid() {
		return nil, apperr.BadInput("unknown tier "+req.Tier, nil)
	}
	if !req.Price.IsPositive() {
		return nil, apperr.BadInput("price must be positive", nil)
	}
	if !req.Price.Mul(hundred).IsInteger() {
		return nil, apperr.BadInput("price has more than two decimal places", nil)
	}

	// fail before creating an orphan processor price
	_, err := s.offerRepo.FindByGigAndTier(ctx, nil, req.GigID, tier)
	if err == nil {
		return nil, apperr.OfferAlreadyExists(req.GigID, req.Tier)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.StoreFailure("look up offer", err)
	}

	price, err := s.processor.CreatePrice(ctx, client.CreatePriceParams{
		Name:       fmt.Sprintf("[%s] %s", tier, req.Title),
		UnitAmount: req.Price.Mul(hundred).IntPart(),
		Currency:   s.currency,
	})
	if err != nil {
		return nil, apperr.ProcessorUnavailable("could not create processor price", err)
	}

	offer := &model.Offer{
		ID:            uuid.NewString(),
		GigID:         req.GigID,
		Tier:          tier,
		SellerID:      sellerID,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		DeliveryDays:  req.DeliveryDays,
		Revisions:     req.Revisions,
		StripePriceID: price.ID,
	}
	if err := s.offerRepo.Create(ctx, offer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.OfferAlreadyExists(req.GigID, req.Tier)
		}
		return nil, apperr.StoreFailure("store offer", err)
	}

	s.log.Info("offer created",
		zap.String("offer_id", offer.ID),
		zap.String("gig_id", offer.GigID),
		zap.String("tier", string(offer.Tier)),
		zap.String("price_id", offer.StripePriceID),
	)

	return offer, nil
}

func (s *offerServiceImpl) GetOffer(ctx context.Context, gigID string, tier model.Tier) (*model.Offer, error) {
	offer, err := s.offerRepo.FindByGigAndTier(ctx, nil, gigID, tier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.OfferNotFound(fmt.Sprintf("no %s offer found for gig %s", tier, gigID))
	}
	if err != nil {
		return nil, apperr.StoreFailure("get offer", err)
	}
	return offer, nil
}

func (s *offerServiceImpl) ListOffersByGig(ctx context.Context, gigID string) ([]*model.Offer, error) {
	offers, err := s.offerRepo.ListByGig(ctx, gigID)
	if err != nil {
		return nil, apperr.StoreFailure("list offers", err)
	}
	return offers, nil
}
