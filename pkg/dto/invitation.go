package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/entitlements"
)

type CreateInvitationRequest struct {
	Role string `json:"role"`
}

type InvitationResponse struct {
	Code      string            `json:"code"`
	UnitID    uuid.UUID         `json:"unit_id"`
	Role      entitlements.Role `json:"role"`
	ExpiresAt time.Time         `json:"expires_at"`
	UsedAt    *time.Time        `json:"used_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	JoinURL   string            `json:"join_url,omitempty"`
}

type InvitationPreviewResponse struct {
	UnitID    uuid.UUID         `json:"unit_id"`
	UnitName  string            `json:"unit_name"`
	Role      entitlements.Role `json:"role"`
	ExpiresAt time.Time         `json:"expires_at"`
	Status    string            `json:"status"`
}

type RedeemInvitationResponse struct {
	UnitID uuid.UUID         `json:"unit_id"`
	Role   entitlements.Role `json:"role"`
}

type SendInviteEmailRequest struct {
	Email      string `json:"email"`
	InviteLink string `json:"inviteLink"`
	UnitName   string `json:"unitName"`
	Role       string `json:"role"`
}

type SendInviteEmailResponse struct {
	Success   bool   `json:"success"`
	Simulated bool   `json:"simulated"`
	Message   string `json:"message"`
}
