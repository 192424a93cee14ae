package salary

import (
	"context"
	"time"

	"crewdesk/internal/domain/pricing"
)

// Repository is the durable store behind Service. Calculations are listed in
// insertion order.
type Repository interface {
	Settings(ctx context.Context) (pricing.Settings, bool, error)
	PutSettings(ctx context.Context, settings pricing.Settings) error
	CreatePeriod(ctx context.Context, period Period) error
	GetPeriod(ctx context.Context, id string) (Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)
	ActivatePeriod(ctx context.Context, id string) error
	AppendCalculations(ctx context.Context, calcs []Calculation) error
	GetCalculation(ctx context.Context, id string) (Calculation, error)
	ListCalculations(ctx context.Context, filter Filter) ([]Calculation, error)
	UpdateCalculationStatus(ctx context.Context, id, status string, updatedAt time.Time) (Calculation, error)
	DeleteCalculation(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, state State) error
}
