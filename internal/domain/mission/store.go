package mission

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/staffing"
	"crewdesk/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const pricingColumns = `id, event_id, base_price, price_per_hour, bonus_percentage, created_at, updated_at`

func scanPricing(row pgx.Row) (Pricing, error) {
	var p Pricing
	err := row.Scan(&p.ID, &p.EventID, &p.BasePrice, &p.PricePerHour, &p.BonusPercentage, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Upsert keeps a single pricing row per event.
func (s *Store) Upsert(ctx context.Context, eventID string, in PricingInput) (Pricing, error) {
	p, err := scanPricing(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO mission_pricing (event_id, base_price, price_per_hour, bonus_percentage)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (event_id) DO UPDATE SET
      base_price = EXCLUDED.base_price,
      price_per_hour = EXCLUDED.price_per_hour,
      bonus_percentage = EXCLUDED.bonus_percentage,
      updated_at = now()
    RETURNING `+pricingColumns, eventID, in.BasePrice, in.PricePerHour, in.BonusPercentage))
	if querier.ForeignKeyViolation(err) {
		return Pricing{}, staffing.ErrEventNotFound
	}
	return p, err
}

func (s *Store) GetByEvent(ctx context.Context, eventID string) (Pricing, error) {
	p, err := scanPricing(querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT `+pricingColumns+`
    FROM mission_pricing
    WHERE event_id = $1
  `, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Pricing{}, ErrPricingNotFound
	}
	return p, err
}

func (s *Store) DeleteByEvent(ctx context.Context, eventID string) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM mission_pricing WHERE event_id = $1", eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPricingNotFound
	}
	return nil
}

// SQLCalculator calls the calculate_mission_price database function.
type SQLCalculator struct {
	DB querier.Querier
}

func NewSQLCalculator(db querier.Querier) *SQLCalculator {
	return &SQLCalculator{DB: db}
}

func (c *SQLCalculator) CalculateMissionPrice(ctx context.Context, eventID, technicianID string) (decimal.Decimal, error) {
	var price decimal.NullDecimal
	if err := c.DB.QueryRow(ctx, "SELECT calculate_mission_price($1, $2)", eventID, technicianID).Scan(&price); err != nil {
		return decimal.Zero, err
	}
	if !price.Valid {
		return decimal.Zero, ErrPricingNotFound
	}
	return price.Decimal, nil
}
