package pricing

import "github.com/shopspring/decimal"

// Settings is the single process-wide salary configuration. Multipliers are
// expected to be at least 1 and rates fractions in [0,1]; neither is enforced.
type Settings struct {
	DefaultHourlyRate  decimal.Decimal `json:"defaultHourlyRate"`
	OvertimeMultiplier decimal.Decimal `json:"overtimeMultiplier"`
	WeekendMultiplier  decimal.Decimal `json:"weekendMultiplier"`
	HolidayMultiplier  decimal.Decimal `json:"holidayMultiplier"`
	TaxRate            decimal.Decimal `json:"taxRate"`
	InsuranceRate      decimal.Decimal `json:"insuranceRate"`
	Currency           string          `json:"currency"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultHourlyRate:  decimal.NewFromInt(25),
		OvertimeMultiplier: decimal.RequireFromString("1.5"),
		WeekendMultiplier:  decimal.RequireFromString("1.25"),
		HolidayMultiplier:  decimal.NewFromInt(2),
		TaxRate:            decimal.RequireFromString("0.20"),
		InsuranceRate:      decimal.RequireFromString("0.05"),
		Currency:           "EUR",
	}
}
