package dto

import (
	"time"

	"gig-marketplace/internal/model"

	"github.com/shopspring/decimal"
)

// CheckoutSessionRequest selects the offer a buyer wants to pay for. The
// buyer comes from the authenticated request, never from the body.
type CheckoutSessionRequest struct {
	PriceID  string `json:"price_id" validate:"required"`
	Title    string `json:"title" validate:"required,max=255"`
	SellerID string `json:"seller_id" validate:"required"`
	OfferID  string `json:"offer_id" validate:"required"`
	GigID    string `json:"gig_id" validate:"required"`
	Tier     string `json:"tier" validate:"required,oneof=Basic Standard Premium"`
}

type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

type CreateOfferRequest struct {
	GigID        string          `json:"gig_id" validate:"required"`
	Title        string          `json:"title" validate:"required,max=255"`
	Description  string          `json:"description"`
	Tier         string          `json:"tier" validate:"required,oneof=Basic Standard Premium"`
	Price        decimal.Decimal `json:"price"` // whole currency units, checked by the service
	DeliveryDays int             `json:"delivery_days" validate:"gte=1"`
	Revisions    int             `json:"revisions" validate:"gte=0"`
}

type OfferResponse struct {
	ID            string          `json:"id"`
	GigID         string          `json:"gig_id"`
	SellerID      string          `json:"seller_id"`
	Tier          string          `json:"tier"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	DeliveryDays  int             `json:"delivery_days"`
	Revisions     int             `json:"revisions"`
	StripePriceID string          `json:"stripe_price_id"`
}

func NewOfferResponse(o *model.Offer) *OfferResponse {
	return &OfferResponse{
		ID:            o.ID,
		GigID:         o.GigID,
		SellerID:      o.SellerID,
		Tier:          string(o.Tier),
		Title:         o.Title,
		Description:   o.Description,
		Price:         o.Price,
		DeliveryDays:  o.DeliveryDays,
		Revisions:     o.Revisions,
		StripePriceID: o.StripePriceID,
	}
}

type RegisterSellerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
}

type ConnectPayoutAccountRequest struct {
	AccountID string `json:"account_id" validate:"required,startswith=acct_"`
}

type SellerResponse struct {
	ID                         string `json:"id"`
	Username                   string `json:"username"`
	StripeAccountID            string `json:"stripe_account_id,omitempty"`
	StripeAccountSetupComplete bool   `json:"stripe_account_setup_complete"`
}

func NewSellerResponse(u *model.User) *SellerResponse {
	return &SellerResponse{
		ID:                         u.ID,
		Username:                   u.Username,
		StripeAccountID:            u.StripeAccountID,
		StripeAccountSetupComplete: u.StripeAccountSetupComplete,
	}
}

type OrderResponse struct {
	ID                string          `json:"id"`
	OfferID           string          `json:"offer_id"`
	GigID             string          `json:"gig_id"`
	BuyerID           string          `json:"buyer_id"`
	SellerID          string          `json:"seller_id"`
	Tier              string          `json:"tier"`
	Title             string          `json:"title"`
	Price             decimal.Decimal `json:"price"`
	DeliveryDays      int             `json:"delivery_days"`
	Revisions         int             `json:"revisions"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	PaymentStatus     string          `json:"payment_status"`
	StripeSessionID   string          `json:"stripe_session_id"`
	OrderDate         time.Time       `json:"order_date"`
}

func NewOrderResponse(o *model.Order) *OrderResponse {
	return &OrderResponse{
		ID:                o.ID,
		OfferID:           o.OfferID,
		GigID:             o.GigID,
		BuyerID:           o.BuyerID,
		SellerID:          o.SellerID,
		Tier:              string(o.Tier),
		Title:             o.Title,
		Price:             o.Price,
		DeliveryDays:      o.DeliveryDays,
		Revisions:         o.Revisions,
		FulfillmentStatus: o.FulfillmentStatus,
		PaymentStatus:     o.PaymentStatus,
		StripeSessionID:   o.StripeSessionID,
		OrderDate:         o.OrderDate,
	}
}

func NewOrderResponses(orders []*model.Order) []*OrderResponse {
	resp := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = NewOrderResponse(o)
	}
	return resp
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status,omitempty"`
	OrderID  string `json:"order_id,omitempty"`
}

type WebhookErrorResponse struct {
	Error string `json:"error"`
}
