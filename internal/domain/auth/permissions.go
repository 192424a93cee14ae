package auth

import "crewdesk/internal/domain/staffing"

const (
	PermTechniciansRead    = "technicians.read"
	PermProfileWrite       = "profile.write"
	PermEventsRead         = "events.read"
	PermEventsWrite        = "events.write"
	PermAssignmentsRead    = "assignments.read"
	PermAssignmentsWrite   = "assignments.write"
	PermAssignmentsRespond = "assignments.respond"
	PermPricingRead        = "pricing.read"
	PermPricingWrite       = "pricing.write"
	PermCalendarImport     = "calendar.import"
	PermSalaryRead         = "salary.read"
	PermSalaryWrite        = "salary.write"
	PermSalaryTransfer     = "salary.transfer"
)

var DefaultPermissions = []string{
	PermTechniciansRead,
	PermProfileWrite,
	PermEventsRead,
	PermEventsWrite,
	PermAssignmentsRead,
	PermAssignmentsWrite,
	PermAssignmentsRespond,
	PermPricingRead,
	PermPricingWrite,
	PermCalendarImport,
	PermSalaryRead,
	PermSalaryWrite,
	PermSalaryTransfer,
}

var RolePermissions = map[string][]string{
	staffing.RoleTechnician: {
		PermProfileWrite,
		PermEventsRead,
		PermAssignmentsRead,
		PermAssignmentsRespond,
		PermPricingRead,
		PermSalaryRead,
	},
	staffing.RoleAdmin: DefaultPermissions,
}

// Allowed reports whether role grants permission.
func Allowed(role, permission string) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
