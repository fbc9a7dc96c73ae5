package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gig-marketplace/internal/client"
	"gig-marketplace/internal/config"
	"gig-marketplace/internal/metrics"
	"gig-marketplace/internal/model"
	"gig-marketplace/internal/repository"
	"gig-marketplace/internal/service"
	"gig-marketplace/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_server_test"

type testApp struct {
	db        *gorm.DB
	processor *testutil.FakeProcessor
	handler   http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := zap.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(reg, "marketplace")
	processor := testutil.NewFakeProcessor()

	offerRepo := repository.NewOfferRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	diag := service.NewDiagnosticLogger(repository.NewWebhookLogRepository(db), log)

	verifier, err := client.NewStripeEventVerifier(webhookSecret)
	require.NoError(t, err)
	reconciler := service.NewOrderReconciler(db, offerRepo, orderRepo, repository.NewNoopDeliveryLock(), diag, m, log)

	cfg := &config.Config{
		BaseURL: "https://market.test",
		Webhook: config.Webhook{RateLimit: 1000},
	}
	srv := NewServer(cfg, log, reg, Services{
		Checkout: service.NewCheckoutService(processor, userRepo, service.CheckoutConfig{
			BaseURL:            cfg.BaseURL,
			Currency:           "usd",
			PlatformFeePercent: 10,
		}, log),
		Webhook: service.NewWebhookService(verifier, reconciler, diag, m, log),
		Offer:   service.NewOfferService(processor, offerRepo, "usd", log),
		Seller:  service.NewSellerService(processor, userRepo, log),
		Order:   service.NewOrderService(orderRepo),
	})

	return &testApp{db: db, processor: processor, handler: srv.Handler()}
}

func (a *testApp) do(t *testing.T, method, path, userID string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) seedOffer(t *testing.T) {
	t.Helper()
	require.NoError(t, a.db.Create(&model.Offer{
		ID:            "o1",
		GigID:         "g1",
		Tier:          model.TierStandard,
		SellerID:      "s1",
		Title:         "Logo design",
		Price:         decimal.NewFromInt(100),
		DeliveryDays:  3,
		Revisions:     2,
		StripePriceID: "price_o1",
	}).Error)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func signedCompletedEvent(t *testing.T, sessionID string) (string, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_" + sessionID,
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2023-10-16",
		"data": map[string]any{"object": map[string]any{
			"id":     sessionID,
			"object": "checkout.session",
			"metadata": map[string]string{
				"offerId":  "o1",
				"gigId":    "g1",
				"buyerId":  "b1",
				"sellerId": "s1",
				"tier":     "Standard",
			},
		}},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})
	return string(payload), signed.Header
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/api/health", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWebhookEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.seedOffer(t)

	t.Run("missing signature", func(t *testing.T) {
		payload, _ := signedCompletedEvent(t, "cs_1")
		rec := app.do(t, http.MethodPost, "/api/stripe/webhook", "", payload, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
	})

	t.Run("valid then duplicate", func(t *testing.T) {
		payload, sig := signedCompletedEvent(t, "cs_1")
		headers := map[string]string{"Stripe-Signature": sig}

		rec := app.do(t, http.MethodPost, "/api/stripe/webhook", "", payload, headers)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var first map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
		assert.Equal(t, true, first["received"])
		assert.Equal(t, "processed", first["status"])

		rec = app.do(t, http.MethodPost, "/api/stripe/webhook", "", payload, headers)
		require.Equal(t, http.StatusOK, rec.Code)
		var second map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
		assert.Equal(t, "duplicate", second["status"])
		assert.Equal(t, first["order_id"], second["order_id"])
	})

	t.Run("unknown offer answers 400", func(t *testing.T) {
		require.NoError(t, app.db.Where("id = ?", "o1").Delete(&model.Offer{}).Error)
		payload, sig := signedCompletedEvent(t, "cs_2")

		rec := app.do(t, http.MethodPost, "/api/stripe/webhook", "", payload, map[string]string{"Stripe-Signature": sig})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec := app.do(t, http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marketplace_webhook_events_total{event_type="checkout.session.completed",status="processed"} 1`)
	assert.Contains(t, rec.Body.String(), `marketplace_webhook_errors_total{error_type="SIGNATURE_INVALID"} 1`)
}

func TestCheckoutEndpoint(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.db.Create(&model.User{ID: "s1", Username: "seller", StripeAccountID: "acct_1"}).Error)
	require.NoError(t, app.db.Create(&model.User{ID: "s2", Username: "unpaid"}).Error)
	app.processor.Prices["price_1"] = &client.Price{ID: "price_1", UnitAmount: 1999, Currency: "usd"}

	body := `{"price_id":"price_1","title":"Logo design","seller_id":"s1","offer_id":"o1","gig_id":"g1","tier":"Standard"}`

	t.Run("requires identity", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/checkout/sessions", "", body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Error.Code)
	})

	t.Run("validates body", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/checkout/sessions", "b1",
			`{"price_id":"price_1","title":"x","seller_id":"s1","offer_id":"o1","gig_id":"g1","tier":"Gold"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_INPUT", decodeError(t, rec).Error.Code)
	})

	t.Run("returns redirect url", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/checkout/sessions", "b1", body, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"url":"https://checkout.stripe.test/c/pay/cs_test_1"}`, rec.Body.String())
		assert.Equal(t, "b1", app.processor.Sessions[len(app.processor.Sessions)-1].Metadata["buyerId"])
	})

	t.Run("seller without payout account", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/checkout/sessions", "b1",
			strings.Replace(body, `"seller_id":"s1"`, `"seller_id":"s2"`, 1), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "SELLER_PAYOUT_NOT_CONFIGURED", decodeError(t, rec).Error.Code)
	})
}

func TestOfferEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/offers", "s1",
		`{"gig_id":"g1","title":"Logo design","tier":"Premium","price":"250","delivery_days":5,"revisions":4}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/offers", "s1",
		`{"gig_id":"g1","title":"Logo design","tier":"Premium","price":"300","delivery_days":5,"revisions":4}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OFFER_ALREADY_EXISTS", decodeError(t, rec).Error.Code)

	rec = app.do(t, http.MethodGet, "/api/gigs/g1/offers/Premium", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var offer map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offer))
	assert.Equal(t, "s1", offer["seller_id"])
	assert.Equal(t, "price_1", offer["stripe_price_id"])

	rec = app.do(t, http.MethodGet, "/api/gigs/g1/offers/Basic", "", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "OFFER_NOT_FOUND", decodeError(t, rec).Error.Code)

	rec = app.do(t, http.MethodGet, "/api/gigs/g1/offers/Gold", "", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/gigs/g1/offers", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var offers []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offers))
	assert.Len(t, offers, 1)
}

func TestSellerEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/sellers", "", `{"username":"pixel-smith"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	sellerID := created["id"]
	require.NotEmpty(t, sellerID)

	rec = app.do(t, http.MethodPut, "/api/sellers/"+sellerID+"/payout-account", "someone-else", `{"account_id":"acct_1"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/sellers/"+sellerID+"/payout-account", sellerID, `{"account_id":"not-an-account"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/sellers/"+sellerID+"/payout-account", sellerID, `{"account_id":"acct_1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/sellers/"+sellerID+"/payout-account/refresh", sellerID, "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "PAYOUT_ACCOUNT_NOT_READY", decodeError(t, rec).Error.Code)

	app.processor.Enabled["acct_1"] = true
	rec = app.do(t, http.MethodPost, "/api/sellers/"+sellerID+"/payout-account/refresh", sellerID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var seller map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seller))
	assert.Equal(t, true, seller["stripe_account_setup_complete"])
}

func TestOrderEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.seedOffer(t)

	payload, sig := signedCompletedEvent(t, "cs_1")
	rec := app.do(t, http.MethodPost, "/api/stripe/webhook", "", payload, map[string]string{"Stripe-Signature": sig})
	require.Equal(t, http.StatusOK, rec.Code)
	var ack map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	orderID, _ := ack["order_id"].(string)
	require.NotEmpty(t, orderID)

	rec = app.do(t, http.MethodGet, "/api/orders/"+orderID, "b1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var order map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "paid", order["payment_status"])
	assert.Equal(t, "pending", order["fulfillment_status"])
	assert.Equal(t, "100", order["price"])

	rec = app.do(t, http.MethodGet, "/api/orders/missing", "b1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/orders?buyer_id=b1", "b1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)

	rec = app.do(t, http.MethodGet, "/api/orders", "b1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/orders?buyer_id=b1&seller_id=s1", "b1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShutdown(t *testing.T) {
	srv := NewServer(&config.Config{Webhook: config.Webhook{RateLimit: 1}}, zap.NewNop(), prometheus.NewRegistry(), Services{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
