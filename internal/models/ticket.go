package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

const (
	TicketSourceForm  = "form"
	TicketSourceVoice = "voice"
)

type Ticket struct {
	ID          uuid.UUID  `json:"id"`
	UnitID      uuid.UUID  `json:"unit_id"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func IsValidTicketStatus(s string) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

func IsValidTicketSource(s string) bool {
	return s == TicketSourceForm || s == TicketSourceVoice
}
