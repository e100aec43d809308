// Package entitlements holds the role and plan registry and the pure rules
// derived from it. The API server and the Go client both import this package,
// so an entitlement decision is computed the same way on either side.
package entitlements

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdminUH    Role = "admin_uh"
	RoleResident   Role = "residente"
	RoleProvider   Role = "proveedor"

	// RoleUnknown stands in for legacy or corrupted role values. No rule grants it anything.
	RoleUnknown Role = ""
)

type Plan string

const (
	PlanBasic Plan = "basic"
	PlanPlus  Plan = "plus"
	PlanMax   Plan = "max"
)

// UnlimitedUnits is the unit quota of the max plan.
const UnlimitedUnits = 999

// PlanDefinition describes what a subscription tier includes.
type PlanDefinition struct {
	Name     Plan     `json:"name"`
	MaxUnits int      `json:"max_units"`
	Features []string `json:"features"`
}

var planDefinitions = map[Plan]PlanDefinition{
	PlanBasic: {
		Name:     PlanBasic,
		MaxUnits: 1,
		Features: []string{"1 unidad habitacional", "Tickets ilimitados", "Invitar residentes"},
	},
	PlanPlus: {
		Name:     PlanPlus,
		MaxUnits: 5,
		Features: []string{"Hasta 5 unidades", "Invitar proveedores", "Reportes"},
	},
	PlanMax: {
		Name:     PlanMax,
		MaxUnits: UnlimitedUnits,
		Features: []string{"Unidades ilimitadas", "Invitar proveedores", "Reportes", "Soporte prioritario"},
	},
}

var roleDescriptions = map[Role]string{
	RoleSuperAdmin: "Administrador de la plataforma",
	RoleAdminUH:    "Administrador de unidad habitacional",
	RoleResident:   "Residente",
	RoleProvider:   "Proveedor de servicios",
}

// ParsePlan resolves a raw plan value. Unknown values fail closed to the basic
// plan; ok reports whether the value was recognized.
func ParsePlan(s string) (Plan, bool) {
	p := Plan(s)
	if _, ok := planDefinitions[p]; ok {
		return p, true
	}
	return PlanBasic, false
}

// ParseRole resolves a raw role value. Unknown values map to RoleUnknown.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if _, ok := roleDescriptions[r]; ok {
		return r, true
	}
	return RoleUnknown, false
}

func (p Plan) IsValid() bool {
	_, ok := planDefinitions[p]
	return ok
}

func (r Role) IsValid() bool {
	_, ok := roleDescriptions[r]
	return ok
}

func (p Plan) String() string { return string(p) }
func (r Role) String() string { return string(r) }

// Definition returns the plan's definition, falling back to basic for unknown plans.
// The returned Features slice is a copy.
func (p Plan) Definition() PlanDefinition {
	def, ok := planDefinitions[p]
	if !ok {
		def = planDefinitions[PlanBasic]
	}
	def.Features = append([]string(nil), def.Features...)
	return def
}

// MaxUnits is the base unit quota of the plan before extra capacity.
func (p Plan) MaxUnits() int {
	if def, ok := planDefinitions[p]; ok {
		return def.MaxUnits
	}
	return planDefinitions[PlanBasic].MaxUnits
}

// Description returns a human readable label, or an empty string for unknown roles.
func (r Role) Description() string {
	return roleDescriptions[r]
}

// Plans lists every plan definition in ascending tier order.
func Plans() []PlanDefinition {
	return []PlanDefinition{PlanBasic.Definition(), PlanPlus.Definition(), PlanMax.Definition()}
}

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdminUH, RoleResident, RoleProvider}
}
