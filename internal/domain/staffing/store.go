package staffing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"crewdesk/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const technicianColumns = `
    u.id, u.email, u.first_name, u.last_name, COALESCE(u.phone, ''), u.role,
    u.hourly_rate, COALESCE(u.skill_level, ''),
    COALESCE(array_agg(s.name ORDER BY s.name) FILTER (WHERE s.name IS NOT NULL), '{}'),
    u.is_active, u.created_at, u.updated_at
  `

const technicianFrom = `
    FROM users u
    LEFT JOIN user_skills us ON us.user_id = u.id
    LEFT JOIN skills s ON s.id = us.skill_id
  `

func scanTechnician(row pgx.Row) (Technician, error) {
	var tech Technician
	var rate decimal.NullDecimal
	if err := row.Scan(
		&tech.ID, &tech.Email, &tech.FirstName, &tech.LastName, &tech.Phone, &tech.Role,
		&rate, &tech.SkillLevel, &tech.Skills, &tech.IsActive, &tech.CreatedAt, &tech.UpdatedAt,
	); err != nil {
		return Technician{}, err
	}
	if rate.Valid {
		value := rate.Decimal
		tech.HourlyRate = &value
	}
	return tech, nil
}

// ListUsers returns every active user, admins included, ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]Technician, error) {
	return s.listUsers(ctx, "")
}

func (s *Store) ListTechnicians(ctx context.Context) ([]Technician, error) {
	return s.listUsers(ctx, RoleTechnician)
}

func (s *Store) listUsers(ctx context.Context, role string) ([]Technician, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT`+technicianColumns+technicianFrom+`
    WHERE u.is_active = true AND ($1 = '' OR u.role = $1)
    GROUP BY u.id
    ORDER BY u.last_name, u.first_name
  `, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Technician
	for rows.Next() {
		tech, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tech)
	}
	return out, rows.Err()
}

func (s *Store) GetTechnician(ctx context.Context, id string) (Technician, error) {
	tech, err := scanTechnician(querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT`+technicianColumns+technicianFrom+`
    WHERE u.id = $1
    GROUP BY u.id
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Technician{}, ErrTechnicianNotFound
	}
	return tech, err
}

// UpdateProfile replaces the self-service fields and the skill list.
func (s *Store) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error {
	db := querier.From(ctx, s.DB)
	tag, err := db.Exec(ctx, `
    UPDATE users
    SET first_name = $1, last_name = $2, phone = $3, skill_level = $4, updated_at = now()
    WHERE id = $5
  `, update.FirstName, update.LastName, update.Phone, update.SkillLevel, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTechnicianNotFound
	}

	if _, err := db.Exec(ctx, "DELETE FROM user_skills WHERE user_id = $1", id); err != nil {
		return err
	}
	for _, skill := range update.Skills {
		if _, err := db.Exec(ctx, `
    WITH upserted AS (
      INSERT INTO skills (name) VALUES ($1)
      ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id
    )
    INSERT INTO user_skills (user_id, skill_id)
    SELECT $2, id FROM upserted
    ON CONFLICT DO NOTHING
  `, skill, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListEventTypes(ctx context.Context) ([]EventType, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT id, name, COALESCE(color, ''), created_at
    FROM event_types
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []EventType
	for rows.Next() {
		var et EventType
		if err := rows.Scan(&et.ID, &et.Name, &et.Color, &et.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, et)
	}
	return types, rows.Err()
}

func (s *Store) CreateEventType(ctx context.Context, name, color string) (EventType, error) {
	et := EventType{Name: name, Color: color}
	err := querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO event_types (name, color)
    VALUES ($1, $2)
    RETURNING id, created_at
  `, name, color).Scan(&et.ID, &et.CreatedAt)
	if err != nil {
		return EventType{}, err
	}
	return et, nil
}
