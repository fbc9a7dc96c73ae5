package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Tier string

const (
	TierBasic    Tier = "Basic"
	TierStandard Tier = "Standard"
	TierPremium  Tier = "Premium"
)

func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierStandard, TierPremium:
		return true
	}
	return false
}

const (
	FulfillmentStatusPending = "pending"
	PaymentStatusPaid        = "paid"
)

// User is the subset of a marketplace account the payment flow needs:
// sellers hold a processor sub-account that receives payouts.
type User struct {
	ID                         string `gorm:"primaryKey;size:64;not null"`
	Username                   string `gorm:"size:64;uniqueIndex;not null"`
	StripeAccountID            string `gorm:"size:64;index"`
	StripeAccountSetupComplete bool   `gorm:"not null;default:false"`
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// Offer is a priced tier of a gig. Immutable once created.
type Offer struct {
	ID            string          `gorm:"primaryKey;size:64;not null"`
	GigID         string          `gorm:"size:64;not null;uniqueIndex:ux_offers_gig_tier,priority:1;index"`
	Tier          Tier            `gorm:"size:16;not null;uniqueIndex:ux_offers_gig_tier,priority:2;index"`
	SellerID      string          `gorm:"size:64;not null;index"`
	Title         string          `gorm:"size:255;not null"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryDays  int             `gorm:"not null"`
	Revisions     int             `gorm:"not null"`
	StripePriceID string          `gorm:"size:64;not null"` // external price reference
	CreatedAt     time.Time
}

// Order is written once per completed checkout session and never updated
// by the payment flow. Price, title, delivery days and revisions are a
// snapshot of the Offer at reconciliation time.
type Order struct {
	ID                string          `gorm:"primaryKey;size:64;not null"`
	OfferID           string          `gorm:"size:64;not null"`
	GigID             string          `gorm:"size:64;not null;index"`
	BuyerID           string          `gorm:"size:64;not null;index"`
	SellerID          string          `gorm:"size:64;not null;index"`
	Tier              Tier            `gorm:"size:16;not null"`
	Title             string          `gorm:"size:255;not null"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryDays      int             `gorm:"not null"`
	Revisions         int             `gorm:"not null"`
	FulfillmentStatus string          `gorm:"size:32;not null"`
	PaymentStatus     string          `gorm:"size:32;not null"`
	StripeSessionID   string          `gorm:"size:128;not null;uniqueIndex"`
	OrderDate         time.Time       `gorm:"not null;index"`
}

// WebhookLog is an append-only diagnostic record of one webhook stage.
type WebhookLog struct {
	ID        uint           `gorm:"primaryKey"`
	Stage     string         `gorm:"size:64;not null;index"`
	Data      datatypes.JSON `gorm:"not null"`
	Timestamp time.Time      `gorm:"not null;index"`
}
