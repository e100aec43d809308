package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/internal/services"
	"github.com/mantty/host-api/internal/sse"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/stripe/stripe-go/v79"
)

// ProfileServiceInterface defines the methods used by handlers from ProfileService
type ProfileServiceInterface interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, fullName string, phone *string) (*models.Profile, error)
	SetActiveUnit(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*models.Profile, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, plan string, extraCapacity *int) (*models.Profile, error)
}

// UnitServiceInterface defines the methods used by handlers from UnitService
type UnitServiceInterface interface {
	CreateForAdmin(ctx context.Context, adminID uuid.UUID, name, address, idempotencyKey string) (*models.Unit, bool, error)
	Quota(ctx context.Context, profile *models.Profile) (entitlements.Quota, error)
	ListAccessible(ctx context.Context, actor *models.Profile) ([]models.UnitAccess, error)
	Authorize(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*models.Unit, error)
}

// InvitationServiceInterface defines the methods used by handlers from InvitationService
type InvitationServiceInterface interface {
	Create(ctx context.Context, issuer *models.Profile, unitID uuid.UUID, role string) (*models.Invitation, string, error)
	Preview(ctx context.Context, code string) (*services.InvitationPreview, error)
	List(ctx context.Context, actor *models.Profile, unitID uuid.UUID) ([]models.Invitation, error)
	Revoke(ctx context.Context, actor *models.Profile, unitID uuid.UUID, code string) error
	Redeem(ctx context.Context, redeemerID uuid.UUID, code string) (*models.Invitation, error)
}

// TicketServiceInterface defines the methods used by handlers from TicketService
type TicketServiceInterface interface {
	Create(ctx context.Context, actor *models.Profile, unitID uuid.UUID, in services.CreateTicketInput) (*models.Ticket, error)
	List(ctx context.Context, actor *models.Profile, unitID uuid.UUID) ([]models.Ticket, error)
	Update(ctx context.Context, actor *models.Profile, unitID, ticketID uuid.UUID, in services.UpdateTicketInput) (*models.Ticket, error)
}

// ReportServiceInterface defines the methods used by handlers from ReportService
type ReportServiceInterface interface {
	Summary(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*services.ReportSummary, error)
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	SendInvite(ctx context.Context, to, unitName, role, inviteLink string) (bool, error)
}

// BillingServiceInterface defines the methods used by handlers from BillingService
type BillingServiceInterface interface {
	Apply(ctx context.Context, evt stripe.Event) (string, error)
}

// HubInterface defines the methods used by handlers from the SSE Hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	SubscribeToUnit(clientID string, userID, unitID uuid.UUID) bool
	UnsubscribeFromUnit(clientID string, userID, unitID uuid.UUID) bool
	Publish(unitID uuid.UUID, eventType string, entityID uuid.UUID, version int, payload any) string
}
