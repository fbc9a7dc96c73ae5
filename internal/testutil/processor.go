package testutil

import (
	"context"
	"fmt"
	"sync"

	"gig-marketplace/internal/client"
)

// FakeProcessor is an in-memory client.PaymentProcessor. Set the *Err
// fields to make the matching call fail.
type FakeProcessor struct {
	mu sync.Mutex

	Prices      map[string]*client.Price
	RetrieveErr error

	CreatePriceErr error
	CreatedPrices  []client.CreatePriceParams

	SessionURL string
	SessionErr error
	Sessions   []client.CheckoutSessionParams

	Enabled    map[string]bool // account id -> charges enabled
	ChargesErr error
}

func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{
		Prices:     map[string]*client.Price{},
		SessionURL: "https://checkout.stripe.test/c/pay/cs_test_1",
		Enabled:    map[string]bool{},
	}
}

func (f *FakeProcessor) RetrievePrice(_ context.Context, priceID string) (*client.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RetrieveErr != nil {
		return nil, f.RetrieveErr
	}
	p, ok := f.Prices[priceID]
	if !ok {
		return nil, fmt.Errorf("no such price: %s", priceID)
	}
	return p, nil
}

func (f *FakeProcessor) CreatePrice(_ context.Context, params client.CreatePriceParams) (*client.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreatePriceErr != nil {
		return nil, f.CreatePriceErr
	}
	f.CreatedPrices = append(f.CreatedPrices, params)
	p := &client.Price{
		ID:         fmt.Sprintf("price_%d", len(f.CreatedPrices)),
		UnitAmount: params.UnitAmount,
		Currency:   params.Currency,
	}
	f.Prices[p.ID] = p
	return p, nil
}

func (f *FakeProcessor) CreateCheckoutSession(_ context.Context, params client.CheckoutSessionParams) (*client.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sessions = append(f.Sessions, params)
	if f.SessionErr != nil {
		return nil, f.SessionErr
	}
	return &client.CheckoutSession{ID: "cs_test_1", URL: f.SessionURL}, nil
}

func (f *FakeProcessor) ChargesEnabled(_ context.Context, accountID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ChargesErr != nil {
		return false, f.ChargesErr
	}
	return f.Enabled[accountID], nil
}
