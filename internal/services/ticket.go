package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mantty/host-api/internal/database"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/entitlements"
)

const ticketColumns = `id, unit_id, created_by, assigned_to, title, description, source, status, version, created_at, updated_at`

type TicketService struct {
	db *database.DB
}

func NewTicketService(db *database.DB) *TicketService {
	return &TicketService{db: db}
}

type CreateTicketInput struct {
	Title       string
	Description string
	Source      string
}

type UpdateTicketInput struct {
	Status     *string
	AssignedTo *uuid.UUID
	Version    int
}

func (s *TicketService) Create(ctx context.Context, actor *models.Profile, unitID uuid.UUID, in CreateTicketInput) (*models.Ticket, error) {
	if !entitlements.CanCreateTickets(actor.Role) {
		return nil, apperror.NotAuthorized("your role cannot create tickets")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "title is required")
	}
	source := in.Source
	if source == "" {
		source = models.TicketSourceForm
	}
	if !models.IsValidTicketSource(source) {
		return nil, apperror.New(apperror.KindInvalidInput, "invalid ticket source: "+source)
	}
	description := strings.TrimSpace(in.Description)
	if source == models.TicketSourceVoice && description == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "voice tickets need a transcript")
	}

	if _, err := authorizeUnit(ctx, s.db.Pool, actor, unitID, false); err != nil {
		return nil, err
	}

	ticket, err := scanTicket(s.db.Pool.QueryRow(ctx, `
		INSERT INTO tickets (unit_id, created_by, title, description, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+ticketColumns, unitID, actor.ID, title, description, source))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return ticket, nil
}

func (s *TicketService) List(ctx context.Context, actor *models.Profile, unitID uuid.UUID) ([]models.Ticket, error) {
	if _, err := authorizeUnit(ctx, s.db.Pool, actor, unitID, false); err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets WHERE unit_id = $1
		ORDER BY created_at DESC
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	tickets := []models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

// Update changes status and/or assignee when in.Version matches the stored
// version. A mismatch is reported as a conflict.
func (s *TicketService) Update(ctx context.Context, actor *models.Profile, unitID, ticketID uuid.UUID, in UpdateTicketInput) (*models.Ticket, error) {
	if !entitlements.CanUpdateTicket(actor.Role) {
		return nil, apperror.NotAuthorized("your role cannot update tickets")
	}
	if in.Status == nil && in.AssignedTo == nil {
		return nil, apperror.New(apperror.KindInvalidInput, "nothing to update")
	}
	if in.Status != nil && !models.IsValidTicketStatus(*in.Status) {
		return nil, apperror.New(apperror.KindInvalidInput, "invalid ticket status: "+*in.Status)
	}

	if _, err := authorizeUnit(ctx, s.db.Pool, actor, unitID, false); err != nil {
		return nil, err
	}

	ticket, err := scanTicket(s.db.Pool.QueryRow(ctx, `
		UPDATE tickets
		SET status = COALESCE($3, status),
		    assigned_to = COALESCE($4, assigned_to),
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND unit_id = $2 AND version = $5
		RETURNING `+ticketColumns, ticketID, unitID, in.Status, in.AssignedTo, in.Version))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	var exists bool
	err = s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM tickets WHERE id = $1 AND unit_id = $2)
	`, ticketID, unitID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check ticket: %w", err)
	}
	if !exists {
		return nil, apperror.New(apperror.KindNotFound, "ticket not found")
	}
	return nil, apperror.New(apperror.KindConflict, "ticket was modified by someone else")
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(&t.ID, &t.UnitID, &t.CreatedBy, &t.AssignedTo, &t.Title, &t.Description,
		&t.Source, &t.Status, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
