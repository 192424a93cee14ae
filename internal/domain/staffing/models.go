package staffing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Technician struct {
	ID         string           `json:"id"`
	Email      string           `json:"email"`
	FirstName  string           `json:"firstName"`
	LastName   string           `json:"lastName"`
	Phone      string           `json:"phone"`
	Role       string           `json:"role"`
	HourlyRate *decimal.Decimal `json:"hourlyRate,omitempty"`
	SkillLevel string           `json:"skillLevel"`
	Skills     []string         `json:"skills"`
	IsActive   bool             `json:"isActive"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

func (t Technician) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

type ProfileUpdate struct {
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Phone      string   `json:"phone"`
	SkillLevel string   `json:"skillLevel"`
	Skills     []string `json:"skills"`
}

type EventType struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// Requirement is the number of technicians of one skill an event needs.
type Requirement struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

type Event struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Location            string        `json:"location"`
	StartDate           time.Time     `json:"startDate"`
	EndDate             time.Time     `json:"endDate"`
	EventTypeID         string        `json:"eventTypeId"`
	EventTypeName       string        `json:"eventTypeName"`
	Requirements        []Requirement `json:"requirements"`
	TargetedTechnicians []string      `json:"targetedTechnicians"`
	CreatedBy           string        `json:"createdBy,omitempty"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// EventForm is the payload used to create or replace an event.
type EventForm struct {
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Location            string        `json:"location"`
	StartDate           time.Time     `json:"startDate"`
	EndDate             time.Time     `json:"endDate"`
	EventTypeID         string        `json:"eventTypeId"`
	RequiredTechnicians []Requirement `json:"requiredTechnicians"`
	TargetedTechnicians []string      `json:"targetedTechnicians,omitempty"`
}

type EventFilter struct {
	From        *time.Time
	To          *time.Time
	EventTypeID string
}

type Assignment struct {
	ID           string     `json:"id"`
	EventID      string     `json:"eventId"`
	TechnicianID string     `json:"technicianId"`
	Status       string     `json:"status"`
	RespondedAt  *time.Time `json:"respondedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type AssignmentFilter struct {
	EventID      string
	TechnicianID string
	Status       string
}

// AssignmentView joins an assignment with the event it staffs.
type AssignmentView struct {
	Assignment
	EventTitle    string    `json:"eventTitle"`
	EventLocation string    `json:"eventLocation"`
	EventStart    time.Time `json:"eventStart"`
	EventEnd      time.Time `json:"eventEnd"`
}
