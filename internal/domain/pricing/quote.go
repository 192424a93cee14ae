package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// QuoteEstimate is the upfront mission price shown before a technician
// accepts: base + hourly * hours, raised by the bonus percentage for expert
// technicians. It never applies payroll multipliers.
func QuoteEstimate(p MissionPricing, hours decimal.Decimal, skillLevel string) decimal.Decimal {
	price := p.BasePrice.Add(p.PricePerHour.Mul(hours))
	if skillLevel == SkillLevelExpert && p.BonusPercentage.IsPositive() {
		price = price.Add(price.Mul(p.BonusPercentage).Div(hundred))
	}
	return price.Round(2)
}

// DurationHours is the fractional number of hours between start and end, at
// minute resolution. Negative spans count as zero.
func DurationHours(start, end time.Time) decimal.Decimal {
	minutes := int64(end.Sub(start) / time.Minute)
	if minutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(minutes).Div(minutesPerHour)
}
