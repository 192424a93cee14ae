package staffing

import (
	"context"
	"fmt"
)

// Notifier hears about new invitations and the technicians' answers.
type Notifier interface {
	AssignmentCreated(ctx context.Context, tech Technician, ev Event)
	AssignmentAnswered(ctx context.Context, tech Technician, ev Event, status string)
}

type Service struct {
	// Notifier is optional.
	Notifier Notifier

	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListUsers(ctx context.Context) ([]Technician, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) ListTechnicians(ctx context.Context) ([]Technician, error) {
	return s.store.ListTechnicians(ctx)
}

func (s *Service) GetTechnician(ctx context.Context, id string) (Technician, error) {
	return s.store.GetTechnician(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (Technician, error) {
	if err := s.store.UpdateProfile(ctx, id, update); err != nil {
		return Technician{}, err
	}
	return s.store.GetTechnician(ctx, id)
}

func (s *Service) ListEventTypes(ctx context.Context) ([]EventType, error) {
	return s.store.ListEventTypes(ctx)
}

func (s *Service) CreateEventType(ctx context.Context, name, color string) (EventType, error) {
	return s.store.CreateEventType(ctx, name, color)
}

func (s *Service) ListEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	return s.store.ListEvents(ctx, filter)
}

func (s *Service) GetEvent(ctx context.Context, id string) (Event, error) {
	return s.store.GetEvent(ctx, id)
}

// CreateEvent writes the event, its requirements and its targeted
// technicians as separate calls. A failure part-way leaves the earlier rows
// in place; the returned error names the step that failed.
func (s *Service) CreateEvent(ctx context.Context, form EventForm, createdBy string) (Event, error) {
	id, err := s.store.InsertEvent(ctx, form, createdBy)
	if err != nil {
		return Event{}, err
	}
	if err := s.store.ReplaceRequirements(ctx, id, form.RequiredTechnicians); err != nil {
		return Event{}, fmt.Errorf("event %s created, requirements failed: %w", id, err)
	}
	if len(form.TargetedTechnicians) > 0 {
		if err := s.store.ReplaceTargetedTechnicians(ctx, id, form.TargetedTechnicians); err != nil {
			return Event{}, fmt.Errorf("event %s created, targeted technicians failed: %w", id, err)
		}
	}
	return s.store.GetEvent(ctx, id)
}

func (s *Service) UpdateEvent(ctx context.Context, id string, form EventForm) (Event, error) {
	if err := s.store.UpdateEvent(ctx, id, form); err != nil {
		return Event{}, err
	}
	if err := s.store.ReplaceRequirements(ctx, id, form.RequiredTechnicians); err != nil {
		return Event{}, fmt.Errorf("event %s updated, requirements failed: %w", id, err)
	}
	if err := s.store.ReplaceTargetedTechnicians(ctx, id, form.TargetedTechnicians); err != nil {
		return Event{}, fmt.Errorf("event %s updated, targeted technicians failed: %w", id, err)
	}
	return s.store.GetEvent(ctx, id)
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	return s.store.DeleteEvent(ctx, id)
}

func (s *Service) Assign(ctx context.Context, eventID, technicianID string) (Assignment, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return Assignment{}, err
	}
	tech, err := s.store.GetTechnician(ctx, technicianID)
	if err != nil {
		return Assignment{}, err
	}
	a, err := s.store.CreateAssignment(ctx, eventID, technicianID)
	if err != nil {
		return Assignment{}, err
	}
	if s.Notifier != nil {
		s.Notifier.AssignmentCreated(ctx, tech, ev)
	}
	return a, nil
}

func (s *Service) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]AssignmentView, error) {
	return s.store.ListAssignments(ctx, filter)
}

// Respond records a technician's answer to their own invitation. A response
// may be changed later; pending is not a valid answer.
func (s *Service) Respond(ctx context.Context, assignmentID, technicianID, status string) (Assignment, error) {
	if status != AssignmentAccepted && status != AssignmentDeclined {
		return Assignment{}, ErrInvalidResponse
	}
	current, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	if current.TechnicianID != technicianID {
		return Assignment{}, ErrNotAssignee
	}
	updated, err := s.store.UpdateAssignmentStatus(ctx, assignmentID, status)
	if err != nil {
		return Assignment{}, err
	}
	if s.Notifier != nil {
		s.notifyAnswer(ctx, updated)
	}
	return updated, nil
}

func (s *Service) notifyAnswer(ctx context.Context, a Assignment) {
	ev, err := s.store.GetEvent(ctx, a.EventID)
	if err != nil {
		return
	}
	tech, err := s.store.GetTechnician(ctx, a.TechnicianID)
	if err != nil {
		return
	}
	s.Notifier.AssignmentAnswered(ctx, tech, ev, a.Status)
}

func (s *Service) DeleteAssignment(ctx context.Context, id string) error {
	return s.store.DeleteAssignment(ctx, id)
}
