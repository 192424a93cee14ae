package salary

import (
	"time"

	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/pricing"
)

type Period struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p Period) Range() pricing.Period {
	return pricing.Period{Start: p.StartDate, End: p.EndDate}
}

type PeriodInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
}

// Calculation is a stored payroll result for one technician and period.
type Calculation struct {
	pricing.Calculation
	PeriodID string `json:"periodId,omitempty"`
}

type Filter struct {
	PeriodID     string
	TechnicianID string
	Status       string
}

func (f Filter) Match(c Calculation) bool {
	if f.PeriodID != "" && c.PeriodID != f.PeriodID {
		return false
	}
	if f.TechnicianID != "" && c.TechnicianID != f.TechnicianID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// State is everything the salary module persists.
type State struct {
	Calculations []Calculation
	Settings     pricing.Settings
	Periods      []Period
}

type Summary struct {
	PeriodID        string          `json:"periodId"`
	PeriodName      string          `json:"periodName"`
	Calculations    int             `json:"calculations"`
	Technicians     int             `json:"technicians"`
	TotalHours      int             `json:"totalHours"`
	TotalSalary     decimal.Decimal `json:"totalSalary"`
	TotalBonuses    decimal.Decimal `json:"totalBonuses"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TotalNet        decimal.Decimal `json:"totalNet"`
	ByStatus        map[string]int  `json:"byStatus"`
	Currency        string          `json:"currency"`
}
