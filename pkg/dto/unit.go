package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/entitlements"
)

type CreateUnitRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type UnitResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Address   string            `json:"address"`
	AdminID   uuid.UUID         `json:"admin_id"`
	Role      entitlements.Role `json:"role,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type UnitCountResponse struct {
	Count int                `json:"count"`
	Quota entitlements.Quota `json:"quota"`
}

type CreateUnitResponse struct {
	Success bool         `json:"success"`
	Unit    UnitResponse `json:"unit"`
}
