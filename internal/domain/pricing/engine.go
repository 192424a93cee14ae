package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/holiday"
)

// Engine computes payroll calculations. Weekend and holiday checks use the
// event start as seen in Location.
type Engine struct {
	Settings Settings
	Location *time.Location
	NewID    func() string
	Now      func() time.Time
}

func NewEngine(settings Settings, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{Settings: settings, Location: loc, NewID: uuid.NewString, Now: time.Now}
}

// BaseRate is the technician's own hourly rate, or the configured default.
func (e *Engine) BaseRate(tech Technician) decimal.Decimal {
	if tech.HourlyRate != nil {
		return *tech.HourlyRate
	}
	return e.Settings.DefaultHourlyRate
}

// PayrollCalculation prices the technician's accepted assignments whose event
// starts inside period. Assignments of other technicians are ignored.
func (e *Engine) PayrollCalculation(tech Technician, assignments []Assignment, events []Event, period Period) Calculation {
	byID := make(map[string]Event, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}

	id := e.NewID()
	baseRate := e.BaseRate(tech)
	lines := make([]Line, 0, len(assignments))
	totalHours := 0
	totalSalary := decimal.Zero
	assignmentCount := 0

	for _, a := range assignments {
		if a.TechnicianID != tech.ID {
			continue
		}
		assignmentCount++
		if a.Status != AssignmentAccepted {
			continue
		}
		ev, ok := byID[a.EventID]
		if !ok || !period.Contains(ev.StartDate) {
			continue
		}

		line := e.priceLine(ev, baseRate)
		lines = append(lines, line)
		totalHours += line.Hours
		totalSalary = totalSalary.Add(line.Total)
	}

	bonuses := e.bonuses(totalHours, totalSalary, baseRate, assignmentCount)
	deductions := e.deductions(totalSalary)
	now := e.Now()

	return Calculation{
		ID:             id,
		TechnicianID:   tech.ID,
		TechnicianName: tech.Name,
		Period:         period,
		Assignments:    lines,
		TotalHours:     totalHours,
		HourlyRate:     baseRate,
		TotalSalary:    totalSalary,
		Bonuses:        bonuses,
		Deductions:     deductions,
		NetSalary:      NetSalary(totalSalary, bonuses, deductions),
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// priceLine applies weekend and holiday multipliers in sequence. Past eight
// hours the rate is replaced by a blend of base and overtime rates computed
// from the unadjusted base rate, so overtime discards weekend and holiday
// adjustments.
func (e *Engine) priceLine(ev Event, baseRate decimal.Decimal) Line {
	hours := wholeHours(ev.StartDate, ev.EndDate)
	hoursDec := decimal.NewFromInt(int64(hours))

	local := ev.StartDate.In(e.Location)
	rate := baseRate
	if IsWeekend(local) {
		rate = rate.Mul(e.Settings.WeekendMultiplier)
	}
	if holiday.IsFrenchHoliday(local) {
		rate = rate.Mul(e.Settings.HolidayMultiplier)
	}

	total := hoursDec.Mul(rate)
	if hours > regularDayHours {
		regular := decimal.NewFromInt(regularDayHours).Mul(baseRate)
		extra := decimal.NewFromInt(int64(hours - regularDayHours)).Mul(baseRate).Mul(e.Settings.OvertimeMultiplier)
		total = regular.Add(extra)
		rate = total.Div(hoursDec)
	}

	return Line{
		EventID:    ev.ID,
		EventTitle: ev.Title,
		EventDate:  ev.StartDate,
		Hours:      hours,
		HourlyRate: rate,
		Total:      total,
	}
}

func (e *Engine) bonuses(totalHours int, totalSalary, baseRate decimal.Decimal, assignmentCount int) []Bonus {
	bonuses := []Bonus{}
	if totalHours > monthlyHoursThreshold {
		over := totalHours - monthlyHoursThreshold
		bonuses = append(bonuses, Bonus{
			ID:          e.NewID(),
			Type:        BonusOvertime,
			Description: fmt.Sprintf("Overtime bonus (%d h above %d h)", over, monthlyHoursThreshold),
			Amount:      decimal.NewFromInt(int64(over)).Mul(baseRate).Mul(overtimeBonusFactor),
		})
	}
	if assignmentCount > performanceAssignmentMin {
		pct := performanceRate.Mul(hundred)
		bonuses = append(bonuses, Bonus{
			ID:          e.NewID(),
			Type:        BonusPerformance,
			Description: fmt.Sprintf("Performance bonus (%d assignments)", assignmentCount),
			Amount:      totalSalary.Mul(performanceRate),
			Percentage:  &pct,
		})
	}
	return bonuses
}

func (e *Engine) deductions(totalSalary decimal.Decimal) []Deduction {
	taxPct := e.Settings.TaxRate.Mul(hundred)
	insurancePct := e.Settings.InsuranceRate.Mul(hundred)
	return []Deduction{
		{
			ID:          e.NewID(),
			Type:        DeductionTax,
			Description: "Income tax",
			Amount:      totalSalary.Mul(e.Settings.TaxRate),
			Percentage:  &taxPct,
		},
		{
			ID:          e.NewID(),
			Type:        DeductionInsurance,
			Description: "Social insurance",
			Amount:      totalSalary.Mul(e.Settings.InsuranceRate),
			Percentage:  &insurancePct,
		},
	}
}

// NetSalary is total + bonuses - deductions.
func NetSalary(total decimal.Decimal, bonuses []Bonus, deductions []Deduction) decimal.Decimal {
	net := total
	for _, b := range bonuses {
		net = net.Add(b.Amount)
	}
	for _, d := range deductions {
		net = net.Sub(d.Amount)
	}
	return net
}

func IsWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}

// wholeHours truncates the event duration to whole hours.
func wholeHours(start, end time.Time) int {
	return int(end.Sub(start) / time.Hour)
}
