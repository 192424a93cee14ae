package salary

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"crewdesk/internal/domain/pricing"
	"crewdesk/internal/platform/querier"
)

// Store is the Postgres Repository. Line items, bonuses and deductions are
// kept as JSONB on the calculation row.
type Store struct {
	DB querier.Querier
	Tx *querier.TxManager
}

func NewStore(db querier.Querier, tx *querier.TxManager) *Store {
	return &Store{DB: db, Tx: tx}
}

func (s *Store) Settings(ctx context.Context) (pricing.Settings, bool, error) {
	var out pricing.Settings
	err := querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT default_hourly_rate, overtime_multiplier, weekend_multiplier, holiday_multiplier,
           tax_rate, insurance_rate, currency
    FROM salary_settings
    WHERE id = 1
  `).Scan(&out.DefaultHourlyRate, &out.OvertimeMultiplier, &out.WeekendMultiplier, &out.HolidayMultiplier,
		&out.TaxRate, &out.InsuranceRate, &out.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return pricing.Settings{}, false, nil
	}
	if err != nil {
		return pricing.Settings{}, false, err
	}
	return out, true, nil
}

func (s *Store) PutSettings(ctx context.Context, settings pricing.Settings) error {
	_, err := querier.From(ctx, s.DB).Exec(ctx, `
    INSERT INTO salary_settings (id, default_hourly_rate, overtime_multiplier, weekend_multiplier,
                                 holiday_multiplier, tax_rate, insurance_rate, currency, updated_at)
    VALUES (1, $1, $2, $3, $4, $5, $6, $7, now())
    ON CONFLICT (id) DO UPDATE SET
      default_hourly_rate = EXCLUDED.default_hourly_rate,
      overtime_multiplier = EXCLUDED.overtime_multiplier,
      weekend_multiplier = EXCLUDED.weekend_multiplier,
      holiday_multiplier = EXCLUDED.holiday_multiplier,
      tax_rate = EXCLUDED.tax_rate,
      insurance_rate = EXCLUDED.insurance_rate,
      currency = EXCLUDED.currency,
      updated_at = now()
  `, settings.DefaultHourlyRate, settings.OvertimeMultiplier, settings.WeekendMultiplier,
		settings.HolidayMultiplier, settings.TaxRate, settings.InsuranceRate, settings.Currency)
	return err
}

func (s *Store) CreatePeriod(ctx context.Context, period Period) error {
	_, err := querier.From(ctx, s.DB).Exec(ctx, `
    INSERT INTO salary_periods (id, name, start_date, end_date, is_active, created_at)
    VALUES ($1, $2, $3, $4, $5, $6)
  `, period.ID, period.Name, period.StartDate, period.EndDate, period.IsActive, period.CreatedAt)
	return err
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt)
	return p, err
}

func (s *Store) GetPeriod(ctx context.Context, id string) (Period, error) {
	p, err := scanPeriod(querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT id, name, start_date, end_date, is_active, created_at
    FROM salary_periods
    WHERE id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return p, err
}

func (s *Store) ListPeriods(ctx context.Context) ([]Period, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT id, name, start_date, end_date, is_active, created_at
    FROM salary_periods
    ORDER BY start_date DESC, created_at
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// ActivatePeriod marks id as the only active period.
func (s *Store) ActivatePeriod(ctx context.Context, id string) error {
	return s.Tx.Within(ctx, func(ctx context.Context) error {
		db := querier.From(ctx, s.DB)
		tag, err := db.Exec(ctx, "UPDATE salary_periods SET is_active = true WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrPeriodNotFound
		}
		_, err = db.Exec(ctx, "UPDATE salary_periods SET is_active = false WHERE id <> $1 AND is_active", id)
		return err
	})
}

func (s *Store) AppendCalculations(ctx context.Context, calcs []Calculation) error {
	if len(calcs) == 0 {
		return nil
	}
	return s.Tx.Within(ctx, func(ctx context.Context) error {
		db := querier.From(ctx, s.DB)
		for _, c := range calcs {
			if err := insertCalculation(ctx, db, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertCalculation(ctx context.Context, db querier.Querier, c Calculation) error {
	lines, err := json.Marshal(c.Assignments)
	if err != nil {
		return err
	}
	bonuses, err := json.Marshal(c.Bonuses)
	if err != nil {
		return err
	}
	deductions, err := json.Marshal(c.Deductions)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
    INSERT INTO salary_calculations (
      id, technician_id, technician_name, period_id, period_start, period_end,
      assignments, total_hours, hourly_rate, total_salary, bonuses, deductions,
      net_salary, status, created_at, updated_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
  `, c.ID, c.TechnicianID, c.TechnicianName, nullIfEmpty(c.PeriodID), c.Period.Start, c.Period.End,
		lines, c.TotalHours, c.HourlyRate, c.TotalSalary, bonuses, deductions,
		c.NetSalary, c.Status, c.CreatedAt, c.UpdatedAt)
	return err
}

const calculationColumns = `
    id, technician_id, technician_name, COALESCE(period_id, ''), period_start, period_end,
    assignments, total_hours, hourly_rate, total_salary, bonuses, deductions,
    net_salary, status, created_at, updated_at
  `

func scanCalculation(row pgx.Row) (Calculation, error) {
	var c Calculation
	var lines, bonuses, deductions []byte
	if err := row.Scan(
		&c.ID, &c.TechnicianID, &c.TechnicianName, &c.PeriodID, &c.Period.Start, &c.Period.End,
		&lines, &c.TotalHours, &c.HourlyRate, &c.TotalSalary, &bonuses, &deductions,
		&c.NetSalary, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return Calculation{}, err
	}
	if err := json.Unmarshal(lines, &c.Assignments); err != nil {
		return Calculation{}, err
	}
	if err := json.Unmarshal(bonuses, &c.Bonuses); err != nil {
		return Calculation{}, err
	}
	if err := json.Unmarshal(deductions, &c.Deductions); err != nil {
		return Calculation{}, err
	}
	return c, nil
}

func (s *Store) GetCalculation(ctx context.Context, id string) (Calculation, error) {
	c, err := scanCalculation(querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT`+calculationColumns+`
    FROM salary_calculations
    WHERE id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Calculation{}, ErrCalculationNotFound
	}
	return c, err
}

func (s *Store) ListCalculations(ctx context.Context, filter Filter) ([]Calculation, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT`+calculationColumns+`
    FROM salary_calculations
    WHERE ($1 = '' OR period_id = $1)
      AND ($2 = '' OR technician_id = $2)
      AND ($3 = '' OR status = $3)
    ORDER BY seq
  `, filter.PeriodID, filter.TechnicianID, filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCalculationStatus(ctx context.Context, id, status string, updatedAt time.Time) (Calculation, error) {
	c, err := scanCalculation(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE salary_calculations
    SET status = $1, updated_at = $2
    WHERE id = $3
    RETURNING`+calculationColumns, status, updatedAt, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Calculation{}, ErrCalculationNotFound
	}
	return c, err
}

func (s *Store) DeleteCalculation(ctx context.Context, id string) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM salary_calculations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCalculationNotFound
	}
	return nil
}

// ReplaceAll swaps the whole salary state inside one transaction.
func (s *Store) ReplaceAll(ctx context.Context, state State) error {
	return s.Tx.Within(ctx, func(ctx context.Context) error {
		db := querier.From(ctx, s.DB)
		for _, stmt := range []string{
			"DELETE FROM salary_calculations",
			"DELETE FROM salary_periods",
		} {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		if err := s.PutSettings(ctx, state.Settings); err != nil {
			return err
		}
		for _, p := range state.Periods {
			if err := s.CreatePeriod(ctx, p); err != nil {
				return err
			}
		}
		for _, c := range state.Calculations {
			if err := insertCalculation(ctx, db, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
