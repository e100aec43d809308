package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/entitlements"
)

const InvitationTTL = 7 * 24 * time.Hour

const (
	InvitationStatusValid   = "valid"
	InvitationStatusUsed    = "used"
	InvitationStatusExpired = "expired"
)

type Invitation struct {
	Code      string            `json:"code"`
	UnitID    uuid.UUID         `json:"unit_id"`
	Role      entitlements.Role `json:"role"`
	CreatedBy uuid.UUID         `json:"created_by"`
	ExpiresAt time.Time         `json:"expires_at"`
	UsedAt    *time.Time        `json:"used_at,omitempty"`
	UsedBy    *uuid.UUID        `json:"used_by,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

func (i *Invitation) IsUsed() bool {
	return i.UsedAt != nil
}

// Status reports used before expired: a redeemed code stays "used" after its TTL.
func (i *Invitation) Status(now time.Time) string {
	switch {
	case i.IsUsed():
		return InvitationStatusUsed
	case i.IsExpired(now):
		return InvitationStatusExpired
	default:
		return InvitationStatusValid
	}
}
