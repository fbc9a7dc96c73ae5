package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gig-marketplace/internal/config"
	"gig-marketplace/internal/metrics"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

// PaymentProcessor is the slice of the Stripe API the marketplace uses.
type PaymentProcessor interface {
	RetrievePrice(ctx context.Context, priceID string) (*Price, error)
	CreatePrice(ctx context.Context, params CreatePriceParams) (*Price, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	ChargesEnabled(ctx context.Context, accountID string) (bool, error)
}

// EventVerifier authenticates a raw webhook body against its signature
// header and only then decodes it.
type EventVerifier interface {
	Verify(payload []byte, signature string) (stripe.Event, error)
}

type Price struct {
	ID         string
	UnitAmount int64 // minor units; zero when the processor has none
	Currency   string
}

type CreatePriceParams struct {
	Name       string
	UnitAmount int64
	Currency   string
}

type CheckoutSessionParams struct {
	AccountID            string // connected sub-account the session is created on
	Title                string
	UnitAmount           int64
	Currency             string
	ApplicationFeeAmount int64
	Metadata             map[string]string
	SuccessURL           string
	CancelURL            string
}

type CheckoutSession struct {
	ID  string
	URL string
}

const providerName = "stripe"

type stripeProcessorImpl struct {
	sc      *stripe.Client
	metrics metrics.Metrics
}

func NewStripeProcessor(cfg *config.Stripe, m metrics.Metrics) (PaymentProcessor, error) {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if m == nil {
		m = &metrics.NoopMetrics{}
	}

	return &stripeProcessorImpl{
		sc:      stripe.NewClient(key),
		metrics: m,
	}, nil
}

func (c *stripeProcessorImpl) observe(endpoint string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordAPICall(providerName, endpoint, status)
	c.metrics.RecordAPICallDuration(providerName, endpoint, time.Since(start))
}

func (c *stripeProcessorImpl) RetrievePrice(ctx context.Context, priceID string) (*Price, error) {
	start := time.Now()
	p, err := c.sc.V1Prices.Retrieve(ctx, priceID, nil)
	c.observe("/prices/{id}", start, err)
	if err != nil {
		return nil, fmt.Errorf("retrieve price %s: %w", priceID, err)
	}

	return &Price{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
	}, nil
}

func (c *stripeProcessorImpl) CreatePrice(ctx context.Context, params CreatePriceParams) (*Price, error) {
	start := time.Now()
	p, err := c.sc.V1Prices.Create(ctx, buildPriceParams(params))
	c.observe("/prices", start, err)
	if err != nil {
		return nil, fmt.Errorf("create price: %w", err)
	}

	return &Price{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
	}, nil
}

func (c *stripeProcessorImpl) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	start := time.Now()
	s, err := c.sc.V1CheckoutSessions.Create(ctx, buildCheckoutSessionParams(params))
	c.observe("/checkout/sessions", start, err)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{
		ID:  s.ID,
		URL: s.URL,
	}, nil
}

func (c *stripeProcessorImpl) ChargesEnabled(ctx context.Context, accountID string) (bool, error) {
	start := time.Now()
	acct, err := c.sc.V1Accounts.GetByID(ctx, accountID, nil)
	c.observe("/accounts/{id}", start, err)
	if err != nil {
		return false, fmt.Errorf("retrieve account %s: %w", accountID, err)
	}

	return acct.ChargesEnabled, nil
}

func buildPriceParams(params CreatePriceParams) *stripe.PriceCreateParams {
	return &stripe.PriceCreateParams{
		Currency:   stripe.String(params.Currency),
		UnitAmount: stripe.Int64(params.UnitAmount),
		ProductData: &stripe.PriceCreateProductDataParams{
			Name: stripe.String(params.Name),
		},
	}
}

func buildCheckoutSessionParams(params CheckoutSessionParams) *stripe.CheckoutSessionCreateParams {
	p := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(params.Currency),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(params.Title),
					},
					UnitAmount: stripe.Int64(params.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(params.ApplicationFeeAmount),
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}

	p.Metadata = make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		p.Metadata[k] = v
	}
	p.SetStripeAccount(params.AccountID)

	return p
}

type stripeEventVerifierImpl struct {
	secret string
}

func NewStripeEventVerifier(secret string) (EventVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("stripe webhook secret is required")
	}
	return &stripeEventVerifierImpl{secret: secret}, nil
}

func (v *stripeEventVerifierImpl) Verify(payload []byte, signature string) (stripe.Event, error) {
	// Endpoints may be pinned to an older API version than the SDK's.
	return webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
