package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"gig-marketplace/internal/client"
	"gig-marketplace/internal/metrics"
	"gig-marketplace/internal/model"
	"gig-marketplace/internal/repository"
	"gig-marketplace/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test_secret"

// fakeLock behaves like SET NX: a held key cannot be acquired again until
// it is released.
type fakeLock struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	acquired int
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: map[string]bool{}}
}

func (l *fakeLock) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	l.acquired++
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type harness struct {
	db         *gorm.DB
	offerRepo  repository.OfferRepository
	orderRepo  repository.OrderRepository
	userRepo   repository.UserRepository
	processor  *testutil.FakeProcessor
	registry   *prometheus.Registry
	metrics    metrics.Metrics
	diag       DiagnosticLogger
	reconciler *orderReconcilerImpl
	webhook    WebhookService
}

func newHarness(t *testing.T, lock repository.DeliveryLock) *harness {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := zap.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(reg, "marketplace")

	h := &harness{
		db:        db,
		offerRepo: repository.NewOfferRepository(db),
		orderRepo: repository.NewOrderRepository(db),
		userRepo:  repository.NewUserRepository(db),
		processor: testutil.NewFakeProcessor(),
		registry:  reg,
		metrics:   m,
	}
	h.diag = NewDiagnosticLogger(repository.NewWebhookLogRepository(db), log)
	h.reconciler = NewOrderReconciler(db, h.offerRepo, h.orderRepo, lock, h.diag, m, log).(*orderReconcilerImpl)

	verifier, err := client.NewStripeEventVerifier(testWebhookSecret)
	require.NoError(t, err)
	h.webhook = NewWebhookService(verifier, h.reconciler, h.diag, m, log)

	return h
}

// seedOffer stores the Standard offer of gig g1 sold by s1.
func (h *harness) seedOffer(t *testing.T) *model.Offer {
	t.Helper()
	offer := &model.Offer{
		ID:            "o1",
		GigID:         "g1",
		Tier:          model.TierStandard,
		SellerID:      "s1",
		Title:         "Logo design",
		Price:         decimal.NewFromInt(100),
		DeliveryDays:  3,
		Revisions:     2,
		StripePriceID: "price_o1",
	}
	require.NoError(t, h.offerRepo.Create(context.Background(), offer))
	return offer
}

func (h *harness) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func (h *harness) stages(t *testing.T) []string {
	t.Helper()
	var logs []model.WebhookLog
	require.NoError(t, h.db.Order("id ASC").Find(&logs).Error)
	stages := make([]string, len(logs))
	for i, l := range logs {
		stages[i] = l.Stage
	}
	return stages
}

func validMetadata() map[string]string {
	return map[string]string{
		model.MetadataOfferID:  "o1",
		model.MetadataGigID:    "g1",
		model.MetadataBuyerID:  "b1",
		model.MetadataSellerID: "s1",
		model.MetadataTier:     "Standard",
	}
}

func eventPayload(t *testing.T, eventID, eventType, sessionID string, metadata map[string]string) []byte {
	t.Helper()
	session := map[string]any{
		"id":     sessionID,
		"object": "checkout.session",
	}
	if metadata != nil {
		session["metadata"] = metadata
	}
	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2023-10-16",
		"data":        map[string]any{"object": session},
	})
	require.NoError(t, err)
	return payload
}

func completedPayload(t *testing.T, eventID, sessionID string, metadata map[string]string) []byte {
	return eventPayload(t, eventID, "checkout.session.completed", sessionID, metadata)
}

func sign(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}
