package staffing

import "errors"

var (
	ErrTechnicianNotFound = errors.New("technician not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrEventTypeNotFound  = errors.New("event type not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAssignmentExists   = errors.New("technician already assigned to this event")
	ErrInvalidResponse    = errors.New("assignment response must be accepted or declined")
	ErrNotAssignee        = errors.New("assignment belongs to another technician")
)
