package entitlements

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasProAccess(t *testing.T) {
	assert.False(t, HasProAccess(PlanBasic))
	assert.True(t, HasProAccess(PlanPlus))
	assert.True(t, HasProAccess(PlanMax))
	assert.False(t, HasProAccess(Plan("enterprise")))
}

func TestCanManageUnits(t *testing.T) {
	assert.True(t, CanManageUnits(RoleSuperAdmin))
	assert.True(t, CanManageUnits(RoleAdminUH))
	assert.False(t, CanManageUnits(RoleResident))
	assert.False(t, CanManageUnits(RoleProvider))
	assert.False(t, CanManageUnits(RoleUnknown))
}

func TestCanCreateTickets(t *testing.T) {
	assert.False(t, CanCreateTickets(RoleSuperAdmin))
	assert.True(t, CanCreateTickets(RoleAdminUH))
	assert.True(t, CanCreateTickets(RoleResident))
	assert.False(t, CanCreateTickets(RoleProvider))
	assert.False(t, CanCreateTickets(RoleUnknown))
}

func TestCanViewReports_AllCombinations(t *testing.T) {
	expected := map[Role]map[Plan]bool{
		RoleSuperAdmin: {PlanBasic: true, PlanPlus: true, PlanMax: true},
		RoleAdminUH:    {PlanBasic: false, PlanPlus: true, PlanMax: true},
		RoleResident:   {PlanBasic: false, PlanPlus: false, PlanMax: false},
		RoleProvider:   {PlanBasic: false, PlanPlus: false, PlanMax: false},
	}

	cases := 0
	for _, role := range Roles() {
		for _, def := range Plans() {
			want := expected[role][def.Name]
			t.Run(fmt.Sprintf("%s/%s", role, def.Name), func(t *testing.T) {
				assert.Equal(t, want, CanViewReports(role, def.Name))
			})
			cases++
		}
	}
	assert.Equal(t, 12, cases)
}

func TestCanViewReports_UnknownRole(t *testing.T) {
	assert.False(t, CanViewReports(RoleUnknown, PlanMax))
}

func TestCanInviteRole(t *testing.T) {
	for _, def := range Plans() {
		assert.True(t, CanInviteRole(def.Name, RoleResident), def.Name)
		assert.True(t, CanInviteRole(def.Name, RoleAdminUH), def.Name)
		assert.False(t, CanInviteRole(def.Name, RoleSuperAdmin), def.Name)
	}

	assert.False(t, CanInviteRole(PlanBasic, RoleProvider))
	assert.True(t, CanInviteRole(PlanPlus, RoleProvider))
	assert.True(t, CanInviteRole(PlanMax, RoleProvider))
}

func TestCanInviteRole_LegacyPlanFailsClosed(t *testing.T) {
	plan, ok := ParsePlan("gold")

	assert.False(t, ok)
	assert.False(t, CanInviteRole(plan, RoleProvider))
}

func TestCapabilitiesFor_AdminBasic(t *testing.T) {
	caps := CapabilitiesFor(RoleAdminUH, PlanBasic)

	assert.True(t, caps.ManageUnits)
	assert.True(t, caps.CreateTickets)
	assert.True(t, caps.InviteResidents)
	assert.True(t, caps.InviteAdmins)
	assert.False(t, caps.InviteProviders)
	assert.False(t, caps.ViewReports)
	assert.False(t, caps.ProAccess)
}

func TestCapabilitiesFor_ResidentCannotInvite(t *testing.T) {
	caps := CapabilitiesFor(RoleResident, PlanMax)

	assert.False(t, caps.ManageUnits)
	assert.False(t, caps.InviteResidents)
	assert.False(t, caps.InviteProviders)
	assert.True(t, caps.CreateTickets)
	assert.False(t, caps.UpdateTickets)
}

func TestCapabilitiesFor_Deterministic(t *testing.T) {
	for _, role := range Roles() {
		for _, def := range Plans() {
			assert.Equal(t, CapabilitiesFor(role, def.Name), CapabilitiesFor(role, def.Name))
		}
	}
}
