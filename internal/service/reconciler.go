package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/metrics"
	"gig-marketplace/internal/model"
	"gig-marketplace/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const deliveryLockTTL = 30 * time.Second

type ReconcileResult struct {
	OrderID   string
	Duplicate bool // an order for the session already existed
}

// OrderReconciler is the only code path that creates orders.
type OrderReconciler interface {
	Reconcile(ctx context.Context, event model.CheckoutCompleted) (*ReconcileResult, error)
}

type orderReconcilerImpl struct {
	db          *gorm.DB
	offerRepo   repository.OfferRepository
	orderRepo   repository.OrderRepository
	lock        repository.DeliveryLock
	diagnostics DiagnosticLogger
	metrics     metrics.Metrics
	log         *zap.Logger
	now         func() time.Time
}

func NewOrderReconciler(
	db *gorm.DB,
	offerRepo repository.OfferRepository,
	orderRepo repository.OrderRepository,
	lock repository.DeliveryLock,
	diagnostics DiagnosticLogger,
	m metrics.Metrics,
	log *zap.Logger,
) OrderReconciler {
	if lock == nil {
		lock = repository.NewNoopDeliveryLock()
	}
	if m == nil {
		m = &metrics.NoopMetrics{}
	}

	return &orderReconcilerImpl{
		db:          db,
		offerRepo:   offerRepo,
		orderRepo:   orderRepo,
		lock:        lock,
		diagnostics: diagnostics,
		metrics:     m,
		log:         log.Named("reconciler"),
		now:         time.Now,
	}
}

func (r *orderReconcilerImpl) Reconcile(ctx context.Context, event model.CheckoutCompleted) (*ReconcileResult, error) {
	sessionID := event.SessionID
	md := event.Metadata

	acquired, err := r.lock.Acquire(ctx, sessionID, deliveryLockTTL)
	switch {
	case err != nil:
		// the unique index still rejects a second insert
		r.log.Warn("delivery lock unavailable", zap.String("session_id", sessionID), zap.Error(err))
	case !acquired:
		return nil, apperr.DeliveryInProgress(sessionID)
	default:
		defer func() {
			if err := r.lock.Release(context.WithoutCancel(ctx), sessionID); err != nil {
				r.log.Warn("release delivery lock", zap.String("session_id", sessionID), zap.Error(err))
			}
		}()
	}

	var (
		offer  *model.Offer
		result *ReconcileResult
	)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.orderRepo.FindBySessionID(ctx, tx, sessionID)
		if err == nil {
			result = &ReconcileResult{OrderID: existing.ID, Duplicate: true}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find order by session: %w", err)
		}

		offer, err = r.offerRepo.FindByGigAndTier(ctx, tx, md.GigID, md.Tier)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.OfferNotFound(fmt.Sprintf("no %s offer found for gig %s", md.Tier, md.GigID))
		}
		if err != nil {
			return fmt.Errorf("find offer: %w", err)
		}
		if offer.ID != md.OfferID || offer.SellerID != md.SellerID {
			return apperr.OfferNotFound(fmt.Sprintf("offer %s of seller %s no longer matches gig %s tier %s",
				md.OfferID, md.SellerID, md.GigID, md.Tier))
		}

		order := &model.Order{
			ID:                uuid.NewString(),
			OfferID:           offer.ID,
			GigID:             offer.GigID,
			BuyerID:           md.BuyerID,
			SellerID:          offer.SellerID,
			Tier:              offer.Tier,
			Title:             offer.Title,
			Price:             offer.Price,
			DeliveryDays:      offer.DeliveryDays,
			Revisions:         offer.Revisions,
			FulfillmentStatus: model.FulfillmentStatusPending,
			PaymentStatus:     model.PaymentStatusPaid,
			StripeSessionID:   sessionID,
			OrderDate:         r.now().UTC(),
		}
		if err := r.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		result = &ReconcileResult{OrderID: order.ID}
		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the race to a concurrent delivery of the same session
		existing, findErr := r.orderRepo.FindBySessionID(ctx, nil, sessionID)
		if findErr != nil {
			return nil, apperr.StoreFailure("re-read order after duplicate insert", findErr)
		}
		result, err = &ReconcileResult{OrderID: existing.ID, Duplicate: true}, nil
	}

	if err != nil {
		if apperr.Is(err, apperr.CodeOfferNotFound) {
			r.diagnostics.Log(ctx, StageOfferNotFound, map[string]any{
				"sessionId": sessionID,
				"offerId":   md.OfferID,
				"gigId":     md.GigID,
				"sellerId":  md.SellerID,
				"tier":      md.Tier,
				"error":     err.Error(),
			})
			return nil, err
		}
		return nil, apperr.StoreFailure("record order", err)
	}

	if result.Duplicate {
		r.diagnostics.Log(ctx, StageDuplicateDelivery, map[string]any{
			"sessionId": sessionID,
			"orderId":   result.OrderID,
		})
		return result, nil
	}

	r.diagnostics.Log(ctx, StageOfferResolved, map[string]any{
		"sessionId": sessionID,
		"offerId":   offer.ID,
		"price":     offer.Price.String(),
	})
	r.diagnostics.Log(ctx, StageOrderInserted, map[string]any{
		"sessionId": sessionID,
		"orderId":   result.OrderID,
	})
	r.metrics.RecordOrderCreated()
	r.log.Info("order created",
		zap.String("order_id", result.OrderID),
		zap.String("session_id", sessionID),
		zap.String("buyer_id", md.BuyerID),
	)

	return result, nil
}
