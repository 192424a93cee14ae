package pricing

import "github.com/shopspring/decimal"

const (
	StatusDraft    = "draft"
	StatusApproved = "approved"
	StatusPaid     = "paid"

	BonusOvertime    = "overtime"
	BonusWeekend     = "weekend"
	BonusHoliday     = "holiday"
	BonusPerformance = "performance"

	DeductionTax       = "tax"
	DeductionInsurance = "insurance"
	DeductionAbsence   = "absence"

	RoleTechnician     = "technician"
	AssignmentAccepted = "accepted"
	SkillLevelExpert   = "expert"
)

var Statuses = []string{StatusDraft, StatusApproved, StatusPaid}

const (
	regularDayHours          = 8
	monthlyHoursThreshold    = 160
	performanceAssignmentMin = 20
)

var (
	overtimeBonusFactor = decimal.RequireFromString("0.5")
	performanceRate     = decimal.RequireFromString("0.05")
	hundred             = decimal.NewFromInt(100)
)
