package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autoecole/enrollment-service/internal/models"
)

func TestPromote(t *testing.T) {
	tests := []struct {
		current   models.UserRole
		milestone Milestone
		want      models.UserRole
	}{
		{models.RoleGuest, MilestoneEnrollmentApproved, models.RoleStudent},
		{models.RoleStudent, MilestoneEnrollmentApproved, models.RoleStudent},
		{models.RoleManager, MilestoneEnrollmentApproved, models.RoleManager},
		{models.RoleAdmin, MilestoneEnrollmentApproved, models.RoleAdmin},
		{models.RoleGuest, MilestoneSchoolRegistered, models.RoleManager},
		{models.RoleStudent, MilestoneSchoolRegistered, models.RoleManager},
		{models.RoleManager, MilestoneSchoolRegistered, models.RoleManager},
		{models.RoleAdmin, MilestoneSchoolRegistered, models.RoleAdmin},
		{models.RoleGuest, Milestone("unknown"), models.RoleGuest},
	}

	for _, tt := range tests {
		t.Run(string(tt.current)+"/"+string(tt.milestone), func(t *testing.T) {
			assert.Equal(t, tt.want, Promote(tt.current, tt.milestone))
		})
	}
}

func TestPromoteNeverDemotes(t *testing.T) {
	roles := []models.UserRole{models.RoleGuest, models.RoleStudent, models.RoleManager, models.RoleAdmin}
	milestones := []Milestone{MilestoneEnrollmentApproved, MilestoneSchoolRegistered}
	for _, role := range roles {
		for _, milestone := range milestones {
			got := Promote(role, milestone)
			assert.GreaterOrEqual(t, Rank(got), Rank(role))
			assert.Equal(t, got, Promote(got, milestone), "promotion is idempotent")
		}
	}
}
