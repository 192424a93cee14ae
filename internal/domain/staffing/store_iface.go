package staffing

import "context"

type StoreAPI interface {
	ListUsers(ctx context.Context) ([]Technician, error)
	ListTechnicians(ctx context.Context) ([]Technician, error)
	GetTechnician(ctx context.Context, id string) (Technician, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error
	ListEventTypes(ctx context.Context) ([]EventType, error)
	CreateEventType(ctx context.Context, name, color string) (EventType, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	InsertEvent(ctx context.Context, form EventForm, createdBy string) (string, error)
	UpdateEvent(ctx context.Context, id string, form EventForm) error
	DeleteEvent(ctx context.Context, id string) error
	ReplaceRequirements(ctx context.Context, eventID string, requirements []Requirement) error
	ReplaceTargetedTechnicians(ctx context.Context, eventID string, technicianIDs []string) error
	CreateAssignment(ctx context.Context, eventID, technicianID string) (Assignment, error)
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]AssignmentView, error)
	UpdateAssignmentStatus(ctx context.Context, id, status string) (Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
}
