package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

type UpdateTicketRequest struct {
	Status     *string    `json:"status,omitempty"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	Version    int        `json:"version"`
}

type TicketResponse struct {
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

type ReportSummaryResponse struct {
	UnitID   uuid.UUID      `json:"unit_id"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}
