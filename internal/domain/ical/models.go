package ical

import "time"

// Event is a VEVENT decoded from an imported calendar file. It only lives for
// the duration of an import session.
type Event struct {
	UID          string      `json:"uid"`
	Summary      string      `json:"summary"`
	Description  string      `json:"description,omitempty"`
	Location     string      `json:"location,omitempty"`
	StartDate    time.Time   `json:"startDate"`
	EndDate      time.Time   `json:"endDate"`
	Created      *time.Time  `json:"created,omitempty"`
	LastModified *time.Time  `json:"lastModified,omitempty"`
	RRule        string      `json:"rrule,omitempty"`
	ExDates      []time.Time `json:"exDates,omitempty"`
}

// Issue describes a VEVENT block that was skipped during parsing.
type Issue struct {
	Line   int    `json:"line"`
	UID    string `json:"uid,omitempty"`
	Reason string `json:"reason"`
}

type Result struct {
	Events []Event `json:"events"`
	Issues []Issue `json:"issues"`
}

type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}
