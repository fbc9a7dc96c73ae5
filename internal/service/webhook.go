package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/client"
	"gig-marketplace/internal/metrics"
	"gig-marketplace/internal/model"

	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"
)

const (
	WebhookStatusProcessed = "processed"
	WebhookStatusDuplicate = "duplicate"
	WebhookStatusIgnored   = "ignored"
)

type WebhookResult struct {
	EventID   string
	EventType string
	Status    string
	OrderID   string
}

type WebhookService interface {
	// HandleWebhook authenticates payload against signature before reading
	// it and reconciles checkout.session.completed events. Every other
	// verified event type is acknowledged without side effects.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

type webhookServiceImpl struct {
	verifier    client.EventVerifier
	reconciler  OrderReconciler
	diagnostics DiagnosticLogger
	metrics     metrics.Metrics
	log         *zap.Logger
}

func NewWebhookService(
	verifier client.EventVerifier,
	reconciler OrderReconciler,
	diagnostics DiagnosticLogger,
	m metrics.Metrics,
	log *zap.Logger,
) WebhookService {
	if m == nil {
		m = &metrics.NoopMetrics{}
	}

	return &webhookServiceImpl{
		verifier:    verifier,
		reconciler:  reconciler,
		diagnostics: diagnostics,
		metrics:     m,
		log:         log.Named("webhook"),
	}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	start := time.Now()

	s.diagnostics.Log(ctx, StageReceived, map[string]any{
		"payloadLength": len(payload),
		"hasSignature":  signature != "",
	})

	if strings.TrimSpace(signature) == "" {
		return nil, s.fail(ctx, StageSignatureFailed, "unknown", "", apperr.SignatureInvalid(errors.New("missing signature header")))
	}

	event, err := s.verifier.Verify(payload, signature)
	if err != nil {
		return nil, s.fail(ctx, StageSignatureFailed, "unknown", "", apperr.SignatureInvalid(err))
	}

	eventType := string(event.Type)
	defer func() {
		s.metrics.RecordWebhookProcessingDuration(eventType, time.Since(start))
	}()

	s.diagnostics.Log(ctx, StageSignatureVerified, map[string]any{
		"eventId":   event.ID,
		"eventType": eventType,
	})

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: eventType,
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		s.diagnostics.Log(ctx, StageEventIgnored, map[string]any{
			"eventId":   event.ID,
			"eventType": eventType,
		})
		s.metrics.RecordWebhookEvent(eventType, WebhookStatusIgnored)
		result.Status = WebhookStatusIgnored
		return result, nil
	}

	completed, err := decodeCheckoutCompleted(event)
	if err != nil {
		return nil, s.fail(ctx, StageMetadataMissing, eventType, event.ID, err)
	}

	s.diagnostics.Log(ctx, StageMetadataExtracted, map[string]any{
		"eventId":   event.ID,
		"sessionId": completed.SessionID,
		"offerId":   completed.Metadata.OfferID,
		"gigId":     completed.Metadata.GigID,
		"buyerId":   completed.Metadata.BuyerID,
		"sellerId":  completed.Metadata.SellerID,
		"tier":      completed.Metadata.Tier,
	})

	reconciled, err := s.reconciler.Reconcile(ctx, completed)
	if err != nil {
		return nil, s.fail(ctx, StageFailed, eventType, event.ID, err)
	}

	result.OrderID = reconciled.OrderID
	result.Status = WebhookStatusProcessed
	if reconciled.Duplicate {
		result.Status = WebhookStatusDuplicate
	}

	s.metrics.RecordWebhookEvent(eventType, result.Status)
	s.diagnostics.Log(ctx, StageAcknowledged, map[string]any{
		"eventId": event.ID,
		"orderId": result.OrderID,
		"status":  result.Status,
	})

	return result, nil
}

// fail records a terminal stage and returns err unchanged.
func (s *webhookServiceImpl) fail(ctx context.Context, stage, eventType, eventID string, err error) error {
	code := apperr.From(err).TextCode

	s.metrics.RecordWebhookEvent(eventType, "error")
	s.metrics.RecordWebhookError(code)
	s.diagnostics.Log(ctx, stage, map[string]any{
		"eventId": eventID,
		"code":    code,
		"error":   err.Error(),
	})
	s.log.Warn("webhook rejected",
		zap.String("stage", stage),
		zap.String("event_id", eventID),
		zap.String("code", code),
		zap.Error(err),
	)

	return err
}

// decodeCheckoutCompleted turns a verified event into the typed envelope
// used past this point; raw metadata never travels further.
func decodeCheckoutCompleted(event stripe.Event) (model.CheckoutCompleted, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return model.CheckoutCompleted{}, apperr.MetadataMissing("event carries no checkout session")
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return model.CheckoutCompleted{}, apperr.BadInput("decode checkout session", err)
	}
	if session.ID == "" {
		return model.CheckoutCompleted{}, apperr.MetadataMissing("checkout session id missing")
	}

	md, err := model.ParseSessionMetadata(session.Metadata)
	if err != nil {
		return model.CheckoutCompleted{}, err
	}

	return model.CheckoutCompleted{
		EventID:   event.ID,
		SessionID: session.ID,
		Metadata:  md,
	}, nil
}
