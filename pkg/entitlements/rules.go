package entitlements

// Capability names reported when an action is refused by plan rather than by role.
const (
	CapabilityProviderInvitations = "provider_invitations"
	CapabilityReports             = "reports"
)

func HasProAccess(plan Plan) bool {
	return plan == PlanPlus || plan == PlanMax
}

func CanManageUnits(role Role) bool {
	return role == RoleSuperAdmin || role == RoleAdminUH
}

func CanCreateTickets(role Role) bool {
	return role == RoleResident || role == RoleAdminUH
}

// CanUpdateTicket reports whether the role may change a ticket's status or assignee.
func CanUpdateTicket(role Role) bool {
	return role == RoleSuperAdmin || role == RoleAdminUH || role == RoleProvider
}

func CanViewReports(role Role, plan Plan) bool {
	switch role {
	case RoleSuperAdmin:
		return true
	case RoleAdminUH:
		return HasProAccess(plan)
	default:
		return false
	}
}

// CanInviteRole reports whether an issuer on the given plan may invite the
// target role. Provider invitations need a pro plan.
func CanInviteRole(issuerPlan Plan, target Role) bool {
	switch target {
	case RoleResident, RoleAdminUH:
		return true
	case RoleProvider:
		return HasProAccess(issuerPlan)
	default:
		return false
	}
}

// Capabilities is the full set of derived booleans for one actor.
type Capabilities struct {
	ProAccess       bool `json:"pro_access"`
	ManageUnits     bool `json:"manage_units"`
	CreateTickets   bool `json:"create_tickets"`
	UpdateTickets   bool `json:"update_tickets"`
	ViewReports     bool `json:"view_reports"`
	InviteResidents bool `json:"invite_residents"`
	InviteAdmins    bool `json:"invite_admins"`
	InviteProviders bool `json:"invite_providers"`
}

func CapabilitiesFor(role Role, plan Plan) Capabilities {
	manage := CanManageUnits(role)
	return Capabilities{
		ProAccess:       HasProAccess(plan),
		ManageUnits:     manage,
		CreateTickets:   CanCreateTickets(role),
		UpdateTickets:   CanUpdateTicket(role),
		ViewReports:     CanViewReports(role, plan),
		InviteResidents: manage && CanInviteRole(plan, RoleResident),
		InviteAdmins:    manage && CanInviteRole(plan, RoleAdminUH),
		InviteProviders: manage && CanInviteRole(plan, RoleProvider),
	}
}
