package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/entitlements"
)

type ProfileResponse struct {
	ID            uuid.UUID                 `json:"id"`
	Email         string                    `json:"email"`
	FullName      string                    `json:"full_name"`
	Phone         *string                   `json:"phone,omitempty"`
	Role          entitlements.Role         `json:"role"`
	Plan          entitlements.Plan         `json:"plan"`
	ActiveUnitID  *uuid.UUID                `json:"active_unit_id"`
	ExtraCapacity int                       `json:"extra_capacity"`
	Capabilities  entitlements.Capabilities `json:"capabilities"`
	Quota         *entitlements.Quota       `json:"quota,omitempty"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

type UpdateProfileRequest struct {
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
}

type SwitchUnitRequest struct {
	UnitID uuid.UUID `json:"unit_id"`
}

type UpdatePlanRequest struct {
	Plan          string `json:"plan"`
	ExtraCapacity *int   `json:"extra_capacity,omitempty"`
}
