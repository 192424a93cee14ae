package salary

import (
	"context"
	"sort"
	"sync"
	"time"

	"crewdesk/internal/domain/pricing"
)

// MemoryRepository keeps salary state in process memory.
type MemoryRepository struct {
	mu           sync.RWMutex
	settings     *pricing.Settings
	periods      []Period
	calculations []Calculation
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Settings(ctx context.Context) (pricing.Settings, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return pricing.Settings{}, false, nil
	}
	return *m.settings, true, nil
}

func (m *MemoryRepository) PutSettings(ctx context.Context, settings pricing.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &settings
	return nil
}

func (m *MemoryRepository) CreatePeriod(ctx context.Context, period Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods = append(m.periods, period)
	return nil
}

func (m *MemoryRepository) GetPeriod(ctx context.Context, id string) (Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.periods {
		if p.ID == id {
			return p, nil
		}
	}
	return Period{}, ErrPeriodNotFound
}

func (m *MemoryRepository) ListPeriods(ctx context.Context) ([]Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]Period(nil), m.periods...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *MemoryRepository) ActivatePeriod(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, p := range m.periods {
		if p.ID == id {
			found = true
			break
		}
	}
	if !found {
		return ErrPeriodNotFound
	}
	for i := range m.periods {
		m.periods[i].IsActive = m.periods[i].ID == id
	}
	return nil
}

func (m *MemoryRepository) AppendCalculations(ctx context.Context, calcs []Calculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calculations = append(m.calculations, calcs...)
	return nil
}

func (m *MemoryRepository) GetCalculation(ctx context.Context, id string) (Calculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.calculations {
		if c.ID == id {
			return c, nil
		}
	}
	return Calculation{}, ErrCalculationNotFound
}

func (m *MemoryRepository) ListCalculations(ctx context.Context, filter Filter) ([]Calculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Calculation, 0, len(m.calculations))
	for _, c := range m.calculations {
		if filter.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryRepository) UpdateCalculationStatus(ctx context.Context, id, status string, updatedAt time.Time) (Calculation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.calculations {
		if m.calculations[i].ID == id {
			m.calculations[i].Status = status
			m.calculations[i].UpdatedAt = updatedAt
			return m.calculations[i], nil
		}
	}
	return Calculation{}, ErrCalculationNotFound
}

func (m *MemoryRepository) DeleteCalculation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.calculations {
		if m.calculations[i].ID == id {
			m.calculations = append(m.calculations[:i], m.calculations[i+1:]...)
			return nil
		}
	}
	return ErrCalculationNotFound
}

func (m *MemoryRepository) ReplaceAll(ctx context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings := state.Settings
	m.settings = &settings
	m.periods = append([]Period(nil), state.Periods...)
	m.calculations = append([]Calculation(nil), state.Calculations...)
	return nil
}
