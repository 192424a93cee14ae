package salary

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/pricing"
)

var testNow = time.Date(2024, time.April, 2, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *MemoryRepository) {
	repo := NewMemoryRepository()
	svc := NewService(repo, time.UTC, pricing.DefaultSettings())
	n := 0
	svc.NewID = func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	svc.Now = func() time.Time { return testNow }
	return svc, repo
}

func day(d, hour int) time.Time {
	return time.Date(2024, time.March, d, hour, 0, 0, 0, time.UTC)
}

func marchPeriod(t *testing.T, svc *Service) Period {
	t.Helper()
	p, err := svc.CreatePeriod(context.Background(), PeriodInput{Name: "March 2024", StartDate: day(1, 0), EndDate: day(31, 23)})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	return p
}

func rate(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestSettingsDefaultOnFirstUse(t *testing.T) {
	svc, repo := newTestService()
	settings, err := svc.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if !settings.DefaultHourlyRate.Equal(decimal.NewFromInt(25)) || settings.Currency != "EUR" {
		t.Fatalf("unexpected defaults %+v", settings)
	}
	if _, ok, _ := repo.Settings(context.Background()); !ok {
		t.Fatalf("defaults were not persisted")
	}

	updated := settings
	updated.DefaultHourlyRate = decimal.NewFromInt(30)
	updated.Currency = ""
	got, err := svc.UpdateSettings(context.Background(), updated)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got.Currency != "EUR" || !got.DefaultHourlyRate.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestCreatePeriodValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreatePeriod(ctx, PeriodInput{Name: "bad", StartDate: day(10, 0), EndDate: day(10, 0)}); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}

	first, _ := svc.CreatePeriod(ctx, PeriodInput{Name: "Feb", StartDate: day(1, 0).AddDate(0, -1, 0), EndDate: day(1, 0), IsActive: true})
	second, err := svc.CreatePeriod(ctx, PeriodInput{Name: "Mar", StartDate: day(1, 0), EndDate: day(31, 0), IsActive: true})
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	got, _ := svc.GetPeriod(ctx, first.ID)
	if got.IsActive {
		t.Fatalf("activating a new period should deactivate the previous one")
	}
	if p, _ := svc.GetPeriod(ctx, second.ID); !p.IsActive {
		t.Fatalf("new period should be active")
	}
	if _, err := svc.ActivatePeriod(ctx, "missing"); !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestGenerateForPeriod(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	period := marchPeriod(t, svc)

	technicians := []pricing.Technician{
		{ID: "admin", Name: "Admin", Role: "admin", HourlyRate: rate(50)},
		{ID: "t1", Name: "Ana", Role: pricing.RoleTechnician, HourlyRate: rate(20)},
		{ID: "t2", Name: "Marc", Role: pricing.RoleTechnician},
		{ID: "t3", Name: "Zoe", Role: pricing.RoleTechnician},
		{ID: "t4", Name: "Leo", Role: pricing.RoleTechnician, HourlyRate: rate(30)},
		{ID: "t5", Name: "Ines", Role: pricing.RoleTechnician},
	}
	february := time.Date(2024, time.February, 12, 9, 0, 0, 0, time.UTC)
	events := []pricing.Event{
		{ID: "e1", Title: "Conference", StartDate: day(12, 8), EndDate: day(12, 18)},
		{ID: "e2", Title: "Gala", StartDate: day(13, 18), EndDate: day(13, 22)},
		{ID: "e0", Title: "Trade fair", StartDate: february, EndDate: february.Add(8 * time.Hour)},
	}
	assignments := []pricing.Assignment{
		{ID: "a0", EventID: "e1", TechnicianID: "admin", Status: pricing.AssignmentAccepted},
		{ID: "a1", EventID: "e1", TechnicianID: "t1", Status: pricing.AssignmentAccepted},
		{ID: "a2", EventID: "e2", TechnicianID: "t2", Status: pricing.AssignmentAccepted},
		{ID: "a3", EventID: "e2", TechnicianID: "t3", Status: "declined"},
		{ID: "a4", EventID: "e1", TechnicianID: "t3", Status: "pending"},
		{ID: "a5", EventID: "e0", TechnicianID: "t4", Status: pricing.AssignmentAccepted},
		{ID: "a6", EventID: "gone", TechnicianID: "t5", Status: pricing.AssignmentAccepted},
	}

	batch, err := svc.GenerateForPeriod(ctx, period.ID, assignments, events, technicians)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 calculations, got %d", len(batch))
	}
	if batch[0].TechnicianID != "t1" || batch[1].TechnicianID != "t2" {
		t.Fatalf("calculations not in input order: %s, %s", batch[0].TechnicianID, batch[1].TechnicianID)
	}
	if !batch[0].TotalSalary.Equal(decimal.NewFromInt(220)) || batch[0].PeriodID != period.ID {
		t.Fatalf("unexpected first calculation %+v", batch[0])
	}
	if !batch[1].TotalSalary.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("default rate not applied: %s", batch[1].TotalSalary)
	}

	again, err := svc.GenerateForPeriod(ctx, period.ID, assignments, events, technicians)
	if err != nil {
		t.Fatalf("second GenerateForPeriod: %v", err)
	}
	if again[0].ID == batch[0].ID {
		t.Fatalf("regeneration should mint new ids")
	}
	all, _ := svc.List(ctx, Filter{PeriodID: period.ID})
	if len(all) != 4 {
		t.Fatalf("regeneration should append, got %d calculations", len(all))
	}
}

func TestGenerateSkipsWorkOutsidePeriod(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	period := marchPeriod(t, svc)

	technicians := []pricing.Technician{{ID: "t1", Name: "Ana", Role: pricing.RoleTechnician, HourlyRate: rate(20)}}
	var events []pricing.Event
	var assignments []pricing.Assignment
	for i := 0; i < 20; i++ {
		start := time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		id := fmt.Sprintf("feb-%d", i)
		events = append(events, pricing.Event{ID: id, Title: "Setup", StartDate: start, EndDate: start.Add(2 * time.Hour)})
		assignments = append(assignments, pricing.Assignment{ID: "a-" + id, EventID: id, TechnicianID: "t1", Status: pricing.AssignmentAccepted})
	}

	batch, err := svc.GenerateForPeriod(ctx, period.ID, assignments, events, technicians)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("technician without work in March got %d calculation(s)", len(batch))
	}

	events = append(events, pricing.Event{ID: "e1", Title: "Conference", StartDate: day(12, 8), EndDate: day(12, 18)})
	assignments = append(assignments, pricing.Assignment{ID: "a1", EventID: "e1", TechnicianID: "t1", Status: pricing.AssignmentAccepted})
	batch, err = svc.GenerateForPeriod(ctx, period.ID, assignments, events, technicians)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}
	if len(batch) != 1 || len(batch[0].Assignments) != 1 {
		t.Fatalf("expected one calculation with one line, got %+v", batch)
	}
	found := false
	for _, b := range batch[0].Bonuses {
		if b.Type == pricing.BonusPerformance {
			found = true
		}
	}
	if !found {
		t.Fatalf("21 accepted assignments should earn the performance bonus, got %+v", batch[0].Bonuses)
	}
}

func TestGenerateForUnknownPeriod(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.GenerateForPeriod(context.Background(), "nope", nil, nil, nil)
	if !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestStatusAndDelete(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	calc := Calculation{Calculation: pricing.Calculation{ID: "c1", Status: pricing.StatusDraft, CreatedAt: testNow.Add(-time.Hour), UpdatedAt: testNow.Add(-time.Hour)}}
	if err := repo.AppendCalculations(ctx, []Calculation{calc}); err != nil {
		t.Fatalf("AppendCalculations: %v", err)
	}

	tests := []struct {
		name    string
		status  string
		wantErr error
	}{
		{name: "straight to paid", status: pricing.StatusPaid},
		{name: "back to draft", status: pricing.StatusDraft},
		{name: "approved", status: pricing.StatusApproved},
		{name: "unknown", status: "cancelled", wantErr: ErrInvalidStatus},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.UpdateStatus(ctx, "c1", tc.status)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if got.Status != tc.status || !got.UpdatedAt.Equal(testNow) {
				t.Fatalf("unexpected calculation %+v", got)
			}
		})
	}

	if _, err := svc.UpdateStatus(ctx, "missing", pricing.StatusPaid); !errors.Is(err, ErrCalculationNotFound) {
		t.Fatalf("expected ErrCalculationNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "c1"); !errors.Is(err, ErrCalculationNotFound) {
		t.Fatalf("expected ErrCalculationNotFound, got %v", err)
	}
}

func TestPeriodSummary(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	period := marchPeriod(t, svc)

	technicians := []pricing.Technician{
		{ID: "t1", Name: "Ana", Role: pricing.RoleTechnician, HourlyRate: rate(20)},
		{ID: "t2", Name: "Marc", Role: pricing.RoleTechnician, HourlyRate: rate(20)},
	}
	events := []pricing.Event{{ID: "e1", StartDate: day(12, 9), EndDate: day(12, 14)}}
	assignments := []pricing.Assignment{
		{ID: "a1", EventID: "e1", TechnicianID: "t1", Status: pricing.AssignmentAccepted},
		{ID: "a2", EventID: "e1", TechnicianID: "t2", Status: pricing.AssignmentAccepted},
	}
	if _, err := svc.GenerateForPeriod(ctx, period.ID, assignments, events, technicians); err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}

	sum, err := svc.PeriodSummary(ctx, period.ID)
	if err != nil {
		t.Fatalf("PeriodSummary: %v", err)
	}
	if sum.Calculations != 2 || sum.Technicians != 2 || sum.TotalHours != 10 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if !sum.TotalSalary.Equal(decimal.NewFromInt(200)) || !sum.TotalDeductions.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected totals %+v", sum)
	}
	if !sum.TotalNet.Equal(decimal.NewFromInt(150)) || sum.ByStatus[pricing.StatusDraft] != 2 {
		t.Fatalf("unexpected totals %+v", sum)
	}
	if _, err := svc.PeriodSummary(ctx, "missing"); !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}
