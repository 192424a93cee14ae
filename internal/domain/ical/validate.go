package ical

import (
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"crewdesk/internal/domain/staffing"
)

// Validate checks an imported event before it is proposed for creation.
// Every failed rule is reported.
func Validate(ev Event, now time.Time) ValidationResult {
	errs := make([]string, 0, 4)
	if strings.TrimSpace(ev.Summary) == "" {
		errs = append(errs, MsgSummaryRequired)
	}
	if ev.StartDate.IsZero() {
		errs = append(errs, MsgStartRequired)
	}
	if ev.EndDate.IsZero() {
		errs = append(errs, MsgEndRequired)
	}
	if !ev.StartDate.IsZero() && !ev.EndDate.IsZero() && !ev.StartDate.Before(ev.EndDate) {
		errs = append(errs, MsgEndBeforeStart)
	}
	if !ev.StartDate.IsZero() && ev.StartDate.Before(now) {
		errs = append(errs, MsgStartInPast)
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ToEventForm maps an imported event onto an event creation payload.
func ToEventForm(ev Event, eventTypeID string) staffing.EventForm {
	return staffing.EventForm{
		Title:               ev.Summary,
		Description:         ev.Description,
		Location:            ev.Location,
		StartDate:           ev.StartDate,
		EndDate:             ev.EndDate,
		EventTypeID:         eventTypeID,
		RequiredTechnicians: []staffing.Requirement{},
	}
}

// Load reads a calendar file and parses it. Read or decoding failures are
// reported as ErrParse; malformed events never are.
func Load(r io.Reader, loc *time.Location) (Result, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Result{}, ErrParse
	}
	if !utf8.Valid(body) {
		return Result{}, ErrParse
	}
	return NewParser(loc).Parse(string(body)), nil
}
