package model

import (
	"strings"

	"gig-marketplace/internal/apperr"
)

const (
	MetadataOfferID  = "offerId"
	MetadataGigID    = "gigId"
	MetadataBuyerID  = "buyerId"
	MetadataSellerID = "sellerId"
	MetadataTier     = "tier"
)

// SessionMetadata correlates a checkout session with the offer being bought.
// It is attached to the session on creation and echoed back by the
// processor in the completion event.
type SessionMetadata struct {
	OfferID  string
	GigID    string
	BuyerID  string
	SellerID string
	Tier     Tier
}

func (m SessionMetadata) ToMap() map[string]string {
	return map[string]string{
		MetadataOfferID:  m.OfferID,
		MetadataGigID:    m.GigID,
		MetadataBuyerID:  m.BuyerID,
		MetadataSellerID: m.SellerID,
		MetadataTier:     string(m.Tier),
	}
}

// ParseSessionMetadata validates the raw key/value pairs of a session.
// All five keys are required and the tier must be a known level.
func ParseSessionMetadata(raw map[string]string) (SessionMetadata, error) {
	if len(raw) == 0 {
		return SessionMetadata{}, apperr.MetadataMissing("no metadata found in session")
	}

	var missing []string
	get := func(key string) string {
		v := strings.TrimSpace(raw[key])
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	m := SessionMetadata{
		OfferID:  get(MetadataOfferID),
		GigID:    get(MetadataGigID),
		BuyerID:  get(MetadataBuyerID),
		SellerID: get(MetadataSellerID),
		Tier:     Tier(get(MetadataTier)),
	}
	if len(missing) > 0 {
		return SessionMetadata{}, apperr.MetadataMissing("missing required metadata in session: " + strings.Join(missing, ", "))
	}
	if !m.Tier.Valid() {
		return SessionMetadata{}, apperr.MetadataMissing("unknown tier in session metadata: " + string(m.Tier))
	}

	return m, nil
}

// CheckoutCompleted is the trusted form of a verified
// checkout.session.completed event.
type CheckoutCompleted struct {
	EventID   string
	SessionID string
	Metadata  SessionMetadata
}
