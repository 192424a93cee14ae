package mission

import (
	"time"

	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/pricing"
)

const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// Pricing is the negotiated quote configuration of one event.
type Pricing struct {
	ID              string          `json:"id"`
	EventID         string          `json:"eventId"`
	BasePrice       decimal.Decimal `json:"basePrice"`
	PricePerHour    decimal.Decimal `json:"pricePerHour"`
	BonusPercentage decimal.Decimal `json:"bonusPercentage"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type PricingInput struct {
	BasePrice       decimal.Decimal `json:"basePrice"`
	PricePerHour    decimal.Decimal `json:"pricePerHour"`
	BonusPercentage decimal.Decimal `json:"bonusPercentage"`
}

func (in PricingInput) Validate() error {
	if in.BasePrice.IsNegative() || in.PricePerHour.IsNegative() || in.BonusPercentage.IsNegative() {
		return ErrInvalidPricing
	}
	return nil
}

func (p Pricing) Terms() pricing.MissionPricing {
	return pricing.MissionPricing{
		BasePrice:       p.BasePrice,
		PricePerHour:    p.PricePerHour,
		BonusPercentage: p.BonusPercentage,
	}
}

// Quote reports which computation produced Amount. Local is always set;
// Remote only when the remote function answered in time.
type Quote struct {
	EventID      string           `json:"eventId"`
	TechnicianID string           `json:"technicianId"`
	Hours        decimal.Decimal  `json:"hours"`
	Amount       decimal.Decimal  `json:"amount"`
	Source       string           `json:"source"`
	Local        decimal.Decimal  `json:"local"`
	Remote       *decimal.Decimal `json:"remote,omitempty"`
	RemoteError  string           `json:"remoteError,omitempty"`
}
