package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/entitlements"
)

type Profile struct {
	ID            uuid.UUID         `json:"id"`
	Email         string            `json:"email"`
	FullName      string            `json:"full_name"`
	Phone         *string           `json:"phone,omitempty"`
	Role          entitlements.Role `json:"role"`
	Plan          entitlements.Plan `json:"plan"`
	ActiveUnitID  *uuid.UUID        `json:"active_unit_id,omitempty"`
	ExtraCapacity int               `json:"extra_capacity"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (p *Profile) Capabilities() entitlements.Capabilities {
	return entitlements.CapabilitiesFor(p.Role, p.Plan)
}

func (p *Profile) TotalUnitLimit() int {
	return entitlements.TotalUnitLimit(p.Plan, p.ExtraCapacity)
}
