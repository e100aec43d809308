package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Capability string `json:"capability,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Event is a realtime change notification scoped to a unit.
type Event struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	UnitID   uuid.UUID       `json:"unit_id"`
	EntityID uuid.UUID       `json:"entity_id"`
	Version  int             `json:"version"`
	Data     json.RawMessage `json:"data,omitempty"`
}

const (
	EventTicketCreated      = "ticket_created"
	EventTicketUpdated      = "ticket_updated"
	EventUnitCreated        = "unit_created"
	EventInvitationRedeemed = "invitation_redeemed"
	EventProfileUpdated     = "profile_updated"
)
