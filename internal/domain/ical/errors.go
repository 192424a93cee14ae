package ical

import "errors"

var (
	ErrParse         = errors.New("failed to parse calendar file")
	ErrInvalidWindow = errors.New("expansion window end before start")
)

const (
	MsgSummaryRequired = "Summary is required"
	MsgStartRequired   = "Start date is required"
	MsgEndRequired     = "End date is required"
	MsgEndBeforeStart  = "End date must be after start date"
	MsgStartInPast     = "Event cannot start in the past"
)
