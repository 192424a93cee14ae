package staffing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"crewdesk/internal/platform/querier"
)

const eventColumns = `
    e.id, e.title, COALESCE(e.description, ''), COALESCE(e.location, ''),
    e.start_date, e.end_date, COALESCE(e.event_type_id::text, ''), COALESCE(t.name, ''),
    COALESCE((
      SELECT json_agg(json_build_object('skill', r.skill, 'count', r.count) ORDER BY r.skill)
      FROM event_requirements r WHERE r.event_id = e.id
    ), '[]'),
    COALESCE((
      SELECT array_agg(tt.technician_id::text ORDER BY tt.created_at)
      FROM targeted_technicians tt WHERE tt.event_id = e.id
    ), '{}'),
    COALESCE(e.created_by::text, ''), e.created_at, e.updated_at
  `

func scanEvent(row pgx.Row) (Event, error) {
	var ev Event
	var requirements []byte
	if err := row.Scan(
		&ev.ID, &ev.Title, &ev.Description, &ev.Location, &ev.StartDate, &ev.EndDate,
		&ev.EventTypeID, &ev.EventTypeName, &requirements, &ev.TargetedTechnicians,
		&ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
	); err != nil {
		return Event{}, err
	}
	if err := json.Unmarshal(requirements, &ev.Requirements); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (s *Store) ListEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT`+eventColumns+`
    FROM events e
    LEFT JOIN event_types t ON t.id = e.event_type_id
    WHERE ($1::timestamptz IS NULL OR e.start_date >= $1)
      AND ($2::timestamptz IS NULL OR e.start_date <= $2)
      AND ($3 = '' OR e.event_type_id::text = $3)
    ORDER BY e.start_date, e.title
  `, filter.From, filter.To, filter.EventTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) GetEvent(ctx context.Context, id string) (Event, error) {
	ev, err := scanEvent(querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT`+eventColumns+`
    FROM events e
    LEFT JOIN event_types t ON t.id = e.event_type_id
    WHERE e.id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	}
	return ev, err
}

// InsertEvent stores the event row only; requirements and targeted
// technicians are written by their own calls.
func (s *Store) InsertEvent(ctx context.Context, form EventForm, createdBy string) (string, error) {
	var id string
	err := querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO events (title, description, location, start_date, end_date, event_type_id, created_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
  `, form.Title, form.Description, form.Location, form.StartDate, form.EndDate,
		nullIfEmpty(form.EventTypeID), nullIfEmpty(createdBy)).Scan(&id)
	if err != nil {
		if querier.ForeignKeyViolation(err) {
			return "", ErrEventTypeNotFound
		}
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, form EventForm) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, `
    UPDATE events
    SET title = $1, description = $2, location = $3, start_date = $4, end_date = $5,
        event_type_id = $6, updated_at = now()
    WHERE id = $7
  `, form.Title, form.Description, form.Location, form.StartDate, form.EndDate, nullIfEmpty(form.EventTypeID), id)
	if err != nil {
		if querier.ForeignKeyViolation(err) {
			return ErrEventTypeNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *Store) ReplaceRequirements(ctx context.Context, eventID string, requirements []Requirement) error {
	db := querier.From(ctx, s.DB)
	if _, err := db.Exec(ctx, "DELETE FROM event_requirements WHERE event_id = $1", eventID); err != nil {
		return err
	}
	for _, req := range requirements {
		if _, err := db.Exec(ctx, `
    INSERT INTO event_requirements (event_id, skill, count)
    VALUES ($1, $2, $3)
  `, eventID, req.Skill, req.Count); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ReplaceTargetedTechnicians(ctx context.Context, eventID string, technicianIDs []string) error {
	db := querier.From(ctx, s.DB)
	if _, err := db.Exec(ctx, "DELETE FROM targeted_technicians WHERE event_id = $1", eventID); err != nil {
		return err
	}
	for _, techID := range technicianIDs {
		if _, err := db.Exec(ctx, `
    INSERT INTO targeted_technicians (event_id, technician_id)
    VALUES ($1, $2)
    ON CONFLICT DO NOTHING
  `, eventID, techID); err != nil {
			if querier.ForeignKeyViolation(err) {
				return ErrTechnicianNotFound
			}
			return err
		}
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
