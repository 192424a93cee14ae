package salary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/pricing"
)

// Service is the salary orchestrator. One instance is built at startup and
// shared by the handlers and background jobs.
type Service struct {
	repo     Repository
	loc      *time.Location
	defaults pricing.Settings
	NewID    func() string
	Now      func() time.Time
}

func NewService(repo Repository, loc *time.Location, defaults pricing.Settings) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, loc: loc, defaults: defaults, NewID: uuid.NewString, Now: time.Now}
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Settings returns the active configuration, storing the defaults on first use.
func (s *Service) Settings(ctx context.Context) (pricing.Settings, error) {
	settings, ok, err := s.repo.Settings(ctx)
	if err != nil {
		return pricing.Settings{}, err
	}
	if ok {
		return settings, nil
	}
	if err := s.repo.PutSettings(ctx, s.defaults); err != nil {
		return pricing.Settings{}, err
	}
	return s.defaults, nil
}

// UpdateSettings replaces the configuration wholesale. Concurrent writers are
// not detected; the last write wins.
func (s *Service) UpdateSettings(ctx context.Context, settings pricing.Settings) (pricing.Settings, error) {
	if strings.TrimSpace(settings.Currency) == "" {
		settings.Currency = s.defaults.Currency
	}
	if err := s.repo.PutSettings(ctx, settings); err != nil {
		return pricing.Settings{}, err
	}
	return settings, nil
}

func (s *Service) CreatePeriod(ctx context.Context, in PeriodInput) (Period, error) {
	if !in.StartDate.Before(in.EndDate) {
		return Period{}, ErrInvalidPeriod
	}
	period := Period{
		ID:        s.NewID(),
		Name:      strings.TrimSpace(in.Name),
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		IsActive:  in.IsActive,
		CreatedAt: s.Now(),
	}
	if err := s.repo.CreatePeriod(ctx, period); err != nil {
		return Period{}, err
	}
	if period.IsActive {
		if err := s.repo.ActivatePeriod(ctx, period.ID); err != nil {
			return Period{}, err
		}
	}
	return period, nil
}

func (s *Service) ListPeriods(ctx context.Context) ([]Period, error) {
	return s.repo.ListPeriods(ctx)
}

func (s *Service) GetPeriod(ctx context.Context, id string) (Period, error) {
	return s.repo.GetPeriod(ctx, id)
}

func (s *Service) ActivatePeriod(ctx context.Context, id string) (Period, error) {
	if err := s.repo.ActivatePeriod(ctx, id); err != nil {
		return Period{}, err
	}
	return s.repo.GetPeriod(ctx, id)
}

// GenerateForPeriod prices every technician with at least one accepted
// assignment on an event starting inside the period, in input order, and
// appends the results. Accepted assignments outside the period still count
// towards the performance bonus. Calling it twice for
// the same period stores a second set of calculations.
func (s *Service) GenerateForPeriod(ctx context.Context, periodID string, assignments []pricing.Assignment, events []pricing.Event, technicians []pricing.Technician) ([]Calculation, error) {
	period, err := s.repo.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	engine := pricing.NewEngine(settings, s.loc)
	engine.NewID = s.NewID
	engine.Now = s.Now

	batch := []Calculation{}
	for _, tech := range technicians {
		if tech.Role != pricing.RoleTechnician {
			continue
		}
		accepted := acceptedFor(tech.ID, assignments)
		if len(accepted) == 0 {
			continue
		}
		calc := engine.PayrollCalculation(tech, accepted, events, period.Range())
		if len(calc.Assignments) == 0 {
			continue
		}
		batch = append(batch, Calculation{Calculation: calc, PeriodID: period.ID})
	}

	if err := s.repo.AppendCalculations(ctx, batch); err != nil {
		return nil, fmt.Errorf("store calculations: %w", err)
	}
	slog.Info("salary generation completed", "periodId", period.ID, "calculations", len(batch))
	return batch, nil
}

func acceptedFor(technicianID string, assignments []pricing.Assignment) []pricing.Assignment {
	var out []pricing.Assignment
	for _, a := range assignments {
		if a.TechnicianID == technicianID && a.Status == pricing.AssignmentAccepted {
			out = append(out, a)
		}
	}
	return out
}

// UpdateStatus sets any known status; transitions are not ordered.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (Calculation, error) {
	if !ValidStatus(status) {
		return Calculation{}, ErrInvalidStatus
	}
	return s.repo.UpdateCalculationStatus(ctx, id, status, s.Now())
}

func ValidStatus(status string) bool {
	for _, candidate := range pricing.Statuses {
		if status == candidate {
			return true
		}
	}
	return false
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteCalculation(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (Calculation, error) {
	return s.repo.GetCalculation(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Calculation, error) {
	return s.repo.ListCalculations(ctx, filter)
}

// PeriodSummary totals every stored calculation of the period.
func (s *Service) PeriodSummary(ctx context.Context, periodID string) (Summary, error) {
	period, err := s.repo.GetPeriod(ctx, periodID)
	if err != nil {
		return Summary{}, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return Summary{}, err
	}
	calcs, err := s.repo.ListCalculations(ctx, Filter{PeriodID: periodID})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		PeriodID:        period.ID,
		PeriodName:      period.Name,
		TotalSalary:     decimal.Zero,
		TotalBonuses:    decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNet:        decimal.Zero,
		ByStatus:        map[string]int{},
		Currency:        settings.Currency,
	}
	technicians := map[string]struct{}{}
	for _, c := range calcs {
		sum.Calculations++
		technicians[c.TechnicianID] = struct{}{}
		sum.TotalHours += c.TotalHours
		sum.TotalSalary = sum.TotalSalary.Add(c.TotalSalary)
		for _, b := range c.Bonuses {
			sum.TotalBonuses = sum.TotalBonuses.Add(b.Amount)
		}
		for _, d := range c.Deductions {
			sum.TotalDeductions = sum.TotalDeductions.Add(d.Amount)
		}
		sum.TotalNet = sum.TotalNet.Add(c.NetSalary)
		sum.ByStatus[c.Status]++
	}
	sum.Technicians = len(technicians)
	return sum, nil
}
