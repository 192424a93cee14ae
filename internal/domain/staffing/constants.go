package staffing

const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"

	AssignmentPending  = "pending"
	AssignmentAccepted = "accepted"
	AssignmentDeclined = "declined"

	SkillLevelJunior       = "junior"
	SkillLevelIntermediate = "intermediate"
	SkillLevelSenior       = "senior"
	SkillLevelExpert       = "expert"
)

var SkillLevels = []string{SkillLevelJunior, SkillLevelIntermediate, SkillLevelSenior, SkillLevelExpert}

var AssignmentStatuses = []string{AssignmentPending, AssignmentAccepted, AssignmentDeclined}
