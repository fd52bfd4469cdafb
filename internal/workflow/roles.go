package workflow

import "github.com/autoecole/enrollment-service/internal/models"

type Milestone string

const (
	MilestoneEnrollmentApproved Milestone = "enrollment_approved"
	MilestoneSchoolRegistered   Milestone = "school_registered"
)

var roleRank = map[models.UserRole]int{
	models.RoleGuest:   0,
	models.RoleStudent: 1,
	models.RoleManager: 2,
	models.RoleAdmin:   3,
}

// Rank orders roles by privilege tier. Unknown roles rank below guest.
func Rank(role models.UserRole) int {
	if rank, ok := roleRank[role]; ok {
		return rank
	}
	return -1
}

// Promote is the only place role changes are decided. It is total over the
// known roles and milestones and never returns a role ranked below current.
//
//	guest   + enrollment_approved -> student
//	guest   + school_registered   -> manager
//	student + school_registered   -> manager
//
// Every other combination leaves the role unchanged.
func Promote(current models.UserRole, milestone Milestone) models.UserRole {
	var target models.UserRole
	switch milestone {
	case MilestoneEnrollmentApproved:
		target = models.RoleStudent
	case MilestoneSchoolRegistered:
		target = models.RoleManager
	default:
		return current
	}
	if Rank(target) > Rank(current) {
		return target
	}
	return current
}
