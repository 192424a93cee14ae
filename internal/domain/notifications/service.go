package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crewdesk/internal/domain/staffing"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// UserLister finds the admins told about assignment answers.
type UserLister interface {
	ListUsers(ctx context.Context) ([]staffing.Technician, error)
}

// Service emails technicians about new invitations and admins about the
// answers. Delivery failures are logged and never reach the caller.
type Service struct {
	Mailer   Mailer
	From     string
	Users    UserLister
	Location *time.Location
}

func New(mailer Mailer, from string, users UserLister, loc *time.Location) *Service {
	if from == "" {
		from = "no-reply@example.com"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{Mailer: mailer, From: from, Users: users, Location: loc}
}

func (s *Service) AssignmentCreated(ctx context.Context, tech staffing.Technician, ev staffing.Event) {
	subject := "New mission: " + ev.Title
	body := fmt.Sprintf("Hello %s,\n\nYou have been invited to %q.\n%s\n\nPlease accept or decline the invitation in crewdesk.\n",
		greeting(tech), ev.Title, s.when(ev))
	s.send(ctx, TypeAssignmentCreated, tech.Email, subject, body)
}

func (s *Service) AssignmentAnswered(ctx context.Context, tech staffing.Technician, ev staffing.Event, status string) {
	if s.Users == nil {
		return
	}
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		slog.Warn("notification recipients lookup failed", "type", TypeAssignmentAnswered, "err", err)
		return
	}
	subject := fmt.Sprintf("%s %s %s", tech.FullName(), status, ev.Title)
	body := fmt.Sprintf("%s has %s the invitation to %q.\n%s\n", tech.FullName(), status, ev.Title, s.when(ev))
	for _, u := range users {
		if u.Role == staffing.RoleAdmin && u.IsActive {
			s.send(ctx, TypeAssignmentAnswered, u.Email, subject, body)
		}
	}
}

func (s *Service) when(ev staffing.Event) string {
	when := ev.StartDate.In(s.Location).Format(timeLayout) + " to " + ev.EndDate.In(s.Location).Format(timeLayout)
	if loc := strings.TrimSpace(ev.Location); loc != "" {
		when += " at " + loc
	}
	return when
}

func (s *Service) send(ctx context.Context, ntype, to, subject, body string) {
	if s.Mailer == nil || strings.TrimSpace(to) == "" {
		return
	}
	if err := s.Mailer.Send(ctx, s.From, to, subject, body); err != nil {
		slog.Warn("notification email send failed", "type", ntype, "err", err)
	}
}

func greeting(tech staffing.Technician) string {
	if tech.FirstName != "" {
		return tech.FirstName
	}
	return tech.FullName()
}
