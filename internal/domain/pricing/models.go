package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

type Technician struct {
	ID         string
	Name       string
	Role       string
	HourlyRate *decimal.Decimal
	SkillLevel string
}

type Assignment struct {
	ID           string
	EventID      string
	TechnicianID string
	Status       string
}

type Event struct {
	ID        string
	Title     string
	StartDate time.Time
	EndDate   time.Time
}

// Period bounds are inclusive.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Line is one paid assignment inside a calculation.
type Line struct {
	EventID    string          `json:"eventId"`
	EventTitle string          `json:"eventTitle"`
	EventDate  time.Time       `json:"eventDate"`
	Hours      int             `json:"hours"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	Total      decimal.Decimal `json:"total"`
}

type Bonus struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
}

type Deduction struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
}

type Calculation struct {
	ID             string          `json:"id"`
	TechnicianID   string          `json:"technicianId"`
	TechnicianName string          `json:"technicianName"`
	Period         Period          `json:"period"`
	Assignments    []Line          `json:"assignments"`
	TotalHours     int             `json:"totalHours"`
	HourlyRate     decimal.Decimal `json:"hourlyRate"`
	TotalSalary    decimal.Decimal `json:"totalSalary"`
	Bonuses        []Bonus         `json:"bonuses"`
	Deductions     []Deduction     `json:"deductions"`
	NetSalary      decimal.Decimal `json:"netSalary"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// MissionPricing is the negotiated per-event quote configuration.
type MissionPricing struct {
	BasePrice       decimal.Decimal `json:"basePrice"`
	PricePerHour    decimal.Decimal `json:"pricePerHour"`
	BonusPercentage decimal.Decimal `json:"bonusPercentage"`
}
