package notifications

const (
	TypeAssignmentCreated  = "assignment_created"
	TypeAssignmentAnswered = "assignment_answered"
)

const timeLayout = "Mon 02 Jan 2006 15:04"
