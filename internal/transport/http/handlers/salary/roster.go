package salaryhandler

import (
	"context"
	"fmt"

	"crewdesk/internal/domain/pricing"
	"crewdesk/internal/domain/salary"
	"crewdesk/internal/domain/staffing"
)

// Roster is the slice of the staffing store salary generation reads from.
type Roster interface {
	ListUsers(ctx context.Context) ([]staffing.Technician, error)
	ListEvents(ctx context.Context, filter staffing.EventFilter) ([]staffing.Event, error)
	ListAssignments(ctx context.Context, filter staffing.AssignmentFilter) ([]staffing.AssignmentView, error)
}

type generationInput struct {
	technicians []pricing.Technician
	events      []pricing.Event
	assignments []pricing.Assignment
}

// loadGenerationInput snapshots the current roster for one period. Events
// are limited to the period window. Assignments and users are not, so the
// accepted assignments of every period feed the performance bonus count.
func loadGenerationInput(ctx context.Context, roster Roster, period salary.Period) (generationInput, error) {
	users, err := roster.ListUsers(ctx)
	if err != nil {
		return generationInput{}, fmt.Errorf("list users: %w", err)
	}
	from, to := period.StartDate, period.EndDate
	events, err := roster.ListEvents(ctx, staffing.EventFilter{From: &from, To: &to})
	if err != nil {
		return generationInput{}, fmt.Errorf("list events: %w", err)
	}
	views, err := roster.ListAssignments(ctx, staffing.AssignmentFilter{})
	if err != nil {
		return generationInput{}, fmt.Errorf("list assignments: %w", err)
	}

	in := generationInput{
		technicians: make([]pricing.Technician, 0, len(users)),
		events:      make([]pricing.Event, 0, len(events)),
		assignments: make([]pricing.Assignment, 0, len(views)),
	}
	for _, u := range users {
		in.technicians = append(in.technicians, pricing.Technician{
			ID:         u.ID,
			Name:       u.FullName(),
			Role:       u.Role,
			HourlyRate: u.HourlyRate,
			SkillLevel: u.SkillLevel,
		})
	}
	for _, ev := range events {
		in.events = append(in.events, pricing.Event{ID: ev.ID, Title: ev.Title, StartDate: ev.StartDate, EndDate: ev.EndDate})
	}
	for _, a := range views {
		in.assignments = append(in.assignments, pricing.Assignment{ID: a.ID, EventID: a.EventID, TechnicianID: a.TechnicianID, Status: a.Status})
	}
	return in, nil
}
