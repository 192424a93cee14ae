package staffing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"crewdesk/internal/platform/querier"
)

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.EventID, &a.TechnicianID, &a.Status, &a.RespondedAt, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) CreateAssignment(ctx context.Context, eventID, technicianID string) (Assignment, error) {
	a, err := scanAssignment(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO assignments (event_id, technician_id, status)
    VALUES ($1, $2, $3)
    RETURNING id, event_id, technician_id, status, responded_at, created_at, updated_at
  `, eventID, technicianID, AssignmentPending))
	switch {
	case err == nil:
		return a, nil
	case querier.UniqueViolation(err):
		return Assignment{}, ErrAssignmentExists
	case querier.ForeignKeyViolation(err):
		return Assignment{}, ErrEventNotFound
	default:
		return Assignment{}, err
	}
}

func (s *Store) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	a, err := scanAssignment(querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT id, event_id, technician_id, status, responded_at, created_at, updated_at
    FROM assignments
    WHERE id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, err
}

// ListAssignments returns assignments matching every non-empty filter field.
func (s *Store) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]AssignmentView, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT a.id, a.event_id, a.technician_id, a.status, a.responded_at, a.created_at, a.updated_at,
           e.title, COALESCE(e.location, ''), e.start_date, e.end_date
    FROM assignments a
    JOIN events e ON e.id = a.event_id
    WHERE ($1 = '' OR a.event_id::text = $1)
      AND ($2 = '' OR a.technician_id::text = $2)
      AND ($3 = '' OR a.status = $3)
    ORDER BY e.start_date, a.created_at
  `, filter.EventID, filter.TechnicianID, filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignmentView
	for rows.Next() {
		var v AssignmentView
		if err := rows.Scan(
			&v.ID, &v.EventID, &v.TechnicianID, &v.Status, &v.RespondedAt, &v.CreatedAt, &v.UpdatedAt,
			&v.EventTitle, &v.EventLocation, &v.EventStart, &v.EventEnd,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAssignmentStatus(ctx context.Context, id, status string) (Assignment, error) {
	a, err := scanAssignment(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE assignments
    SET status = $1, responded_at = now(), updated_at = now()
    WHERE id = $2
    RETURNING id, event_id, technician_id, status, responded_at, created_at, updated_at
  `, status, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, err
}

func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM assignments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}
