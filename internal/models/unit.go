package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/entitlements"
)

type Unit struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	AdminID   uuid.UUID `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}

type UnitMember struct {
	ID        uuid.UUID         `json:"id"`
	UnitID    uuid.UUID         `json:"unit_id"`
	ProfileID uuid.UUID         `json:"profile_id"`
	Role      entitlements.Role `json:"role"`
	CreatedAt time.Time         `json:"created_at"`
}

// UnitAccess is a unit together with the caller's relation to it.
type UnitAccess struct {
	Unit
	Role entitlements.Role `json:"role"`
}
