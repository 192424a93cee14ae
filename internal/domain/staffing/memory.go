package staffing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process StoreAPI used by tests and local tooling.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]Technician
	eventTypes  map[string]EventType
	events      map[string]Event
	assignments map[string]Assignment
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       map[string]Technician{},
		eventTypes:  map[string]EventType{},
		events:      map[string]Event{},
		assignments: map[string]Assignment{},
		now:         time.Now,
	}
}

// PutUser inserts or replaces a user row.
func (m *MemoryStore) PutUser(tech Technician) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[tech.ID] = tech
}

// PutEvent inserts or replaces an event row without touching requirements.
func (m *MemoryStore) PutEvent(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = ev
}

// PutAssignment inserts or replaces an assignment row.
func (m *MemoryStore) PutAssignment(a Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = a
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]Technician, error) {
	return m.listUsers(""), nil
}

func (m *MemoryStore) ListTechnicians(ctx context.Context) ([]Technician, error) {
	return m.listUsers(RoleTechnician), nil
}

func (m *MemoryStore) listUsers(role string) []Technician {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Technician
	for _, u := range m.users {
		if !u.IsActive || (role != "" && u.Role != role) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName == out[j].LastName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].LastName < out[j].LastName
	})
	return out
}

func (m *MemoryStore) GetTechnician(ctx context.Context, id string) (Technician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tech, ok := m.users[id]
	if !ok {
		return Technician{}, ErrTechnicianNotFound
	}
	return tech, nil
}

func (m *MemoryStore) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tech, ok := m.users[id]
	if !ok {
		return ErrTechnicianNotFound
	}
	tech.FirstName = update.FirstName
	tech.LastName = update.LastName
	tech.Phone = update.Phone
	tech.SkillLevel = update.SkillLevel
	tech.Skills = append([]string(nil), update.Skills...)
	sort.Strings(tech.Skills)
	tech.UpdatedAt = m.now()
	m.users[id] = tech
	return nil
}

func (m *MemoryStore) ListEventTypes(ctx context.Context) ([]EventType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]EventType, 0, len(m.eventTypes))
	for _, et := range m.eventTypes {
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) CreateEventType(ctx context.Context, name, color string) (EventType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	et := EventType{ID: uuid.NewString(), Name: name, Color: color, CreatedAt: m.now()}
	m.eventTypes[et.ID] = et
	return et, nil
}

func (m *MemoryStore) ListEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for _, ev := range m.events {
		if filter.From != nil && ev.StartDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && ev.StartDate.After(*filter.To) {
			continue
		}
		if filter.EventTypeID != "" && ev.EventTypeID != filter.EventTypeID {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *MemoryStore) GetEvent(ctx context.Context, id string) (Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return ev, nil
}

func (m *MemoryStore) InsertEvent(ctx context.Context, form EventForm, createdBy string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var typeName string
	if form.EventTypeID != "" {
		et, ok := m.eventTypes[form.EventTypeID]
		if !ok {
			return "", ErrEventTypeNotFound
		}
		typeName = et.Name
	}
	now := m.now()
	ev := Event{
		ID:                  uuid.NewString(),
		Title:               form.Title,
		Description:         form.Description,
		Location:            form.Location,
		StartDate:           form.StartDate,
		EndDate:             form.EndDate,
		EventTypeID:         form.EventTypeID,
		EventTypeName:       typeName,
		Requirements:        []Requirement{},
		TargetedTechnicians: []string{},
		CreatedBy:           createdBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	m.events[ev.ID] = ev
	return ev.ID, nil
}

func (m *MemoryStore) UpdateEvent(ctx context.Context, id string, form EventForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return ErrEventNotFound
	}
	if form.EventTypeID != "" {
		et, ok := m.eventTypes[form.EventTypeID]
		if !ok {
			return ErrEventTypeNotFound
		}
		ev.EventTypeName = et.Name
	}
	ev.Title = form.Title
	ev.Description = form.Description
	ev.Location = form.Location
	ev.StartDate = form.StartDate
	ev.EndDate = form.EndDate
	ev.EventTypeID = form.EventTypeID
	ev.UpdatedAt = m.now()
	m.events[id] = ev
	return nil
}

func (m *MemoryStore) DeleteEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(m.events, id)
	for aid, a := range m.assignments {
		if a.EventID == id {
			delete(m.assignments, aid)
		}
	}
	return nil
}

func (m *MemoryStore) ReplaceRequirements(ctx context.Context, eventID string, requirements []Requirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	ev.Requirements = append([]Requirement{}, requirements...)
	m.events[eventID] = ev
	return nil
}

func (m *MemoryStore) ReplaceTargetedTechnicians(ctx context.Context, eventID string, technicianIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	for _, id := range technicianIDs {
		if _, ok := m.users[id]; !ok {
			return ErrTechnicianNotFound
		}
	}
	ev.TargetedTechnicians = append([]string{}, technicianIDs...)
	m.events[eventID] = ev
	return nil
}

func (m *MemoryStore) CreateAssignment(ctx context.Context, eventID, technicianID string) (Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[eventID]; !ok {
		return Assignment{}, ErrEventNotFound
	}
	for _, a := range m.assignments {
		if a.EventID == eventID && a.TechnicianID == technicianID {
			return Assignment{}, ErrAssignmentExists
		}
	}
	now := m.now()
	a := Assignment{
		ID:           uuid.NewString(),
		EventID:      eventID,
		TechnicianID: technicianID,
		Status:       AssignmentPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.assignments[a.ID] = a
	return a, nil
}

func (m *MemoryStore) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, nil
}

func (m *MemoryStore) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]AssignmentView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []AssignmentView
	for _, a := range m.assignments {
		if filter.EventID != "" && a.EventID != filter.EventID {
			continue
		}
		if filter.TechnicianID != "" && a.TechnicianID != filter.TechnicianID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		ev := m.events[a.EventID]
		out = append(out, AssignmentView{
			Assignment:    a,
			EventTitle:    ev.Title,
			EventLocation: ev.Location,
			EventStart:    ev.StartDate,
			EventEnd:      ev.EndDate,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventStart.Equal(out[j].EventStart) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].EventStart.Before(out[j].EventStart)
	})
	return out, nil
}

func (m *MemoryStore) UpdateAssignmentStatus(ctx context.Context, id, status string) (Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	now := m.now()
	a.Status = status
	a.RespondedAt = &now
	a.UpdatedAt = now
	m.assignments[id] = a
	return a, nil
}

func (m *MemoryStore) DeleteAssignment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[id]; !ok {
		return ErrAssignmentNotFound
	}
	delete(m.assignments, id)
	return nil
}
