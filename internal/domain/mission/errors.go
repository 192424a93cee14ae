package mission

import "errors"

var (
	ErrPricingNotFound = errors.New("mission pricing not found")
	ErrInvalidPricing  = errors.New("mission pricing amounts must not be negative")
)
