package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanTable(t *testing.T) {
	assert.Equal(t, []MembershipPlan{PlanBasic, PlanPro, PlanPremium, PlanOneDayPass}, Plans())
	assert.Equal(t, 30.0, PlanBasic.Price())
	assert.Equal(t, 80.0, PlanPremium.Price())
	assert.Zero(t, MembershipPlan("Gold").Price())
	assert.False(t, MembershipPlan("Gold").Valid())
}

func TestPlanNextTierNeverDowngrades(t *testing.T) {
	assert.Equal(t, PlanBasic, PlanOneDayPass.NextTier())
	assert.Equal(t, PlanPro, PlanBasic.NextTier())
	assert.Equal(t, PlanPremium, PlanPro.NextTier())
	assert.Equal(t, PlanPremium, PlanPremium.NextTier())
}

func TestPlanIsSubscription(t *testing.T) {
	assert.True(t, PlanBasic.IsSubscription())
	assert.False(t, PlanOneDayPass.IsSubscription())
}

func TestAttendanceStatusValid(t *testing.T) {
	assert.True(t, AttendanceStatusPresent.Valid())
	assert.False(t, AttendanceStatus("Late").Valid())
}
