package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/internal/services"
	"github.com/mantty/host-api/internal/sse"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v79"
)

// MockProfileService mocks the ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, id uuid.UUID, fullName string, phone *string) (*models.Profile, error) {
	args := m.Called(ctx, id, fullName, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) SetActiveUnit(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, actor, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) UpdatePlan(ctx context.Context, id uuid.UUID, plan string, extraCapacity *int) (*models.Profile, error) {
	args := m.Called(ctx, id, plan, extraCapacity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// MockUnitService mocks the UnitService
type MockUnitService struct {
	mock.Mock
}

func (m *MockUnitService) CreateForAdmin(ctx context.Context, adminID uuid.UUID, name, address, idempotencyKey string) (*models.Unit, bool, error) {
	args := m.Called(ctx, adminID, name, address, idempotencyKey)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Unit), args.Bool(1), args.Error(2)
}

func (m *MockUnitService) Quota(ctx context.Context, profile *models.Profile) (entitlements.Quota, error) {
	args := m.Called(ctx, profile)
	return args.Get(0).(entitlements.Quota), args.Error(1)
}

func (m *MockUnitService) ListAccessible(ctx context.Context, actor *models.Profile) ([]models.UnitAccess, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UnitAccess), args.Error(1)
}

func (m *MockUnitService) Authorize(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*models.Unit, error) {
	args := m.Called(ctx, actor, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Unit), args.Error(1)
}

// MockInvitationService mocks the InvitationService
type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) Create(ctx context.Context, issuer *models.Profile, unitID uuid.UUID, role string) (*models.Invitation, string, error) {
	args := m.Called(ctx, issuer, unitID, role)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.Invitation), args.String(1), args.Error(2)
}

func (m *MockInvitationService) Preview(ctx context.Context, code string) (*services.InvitationPreview, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InvitationPreview), args.Error(1)
}

func (m *MockInvitationService) List(ctx context.Context, actor *models.Profile, unitID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, actor, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Revoke(ctx context.Context, actor *models.Profile, unitID uuid.UUID, code string) error {
	args := m.Called(ctx, actor, unitID, code)
	return args.Error(0)
}

func (m *MockInvitationService) Redeem(ctx context.Context, redeemerID uuid.UUID, code string) (*models.Invitation, error) {
	args := m.Called(ctx, redeemerID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

// MockTicketService mocks the TicketService
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) Create(ctx context.Context, actor *models.Profile, unitID uuid.UUID, in services.CreateTicketInput) (*models.Ticket, error) {
	args := m.Called(ctx, actor, unitID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketService) List(ctx context.Context, actor *models.Profile, unitID uuid.UUID) ([]models.Ticket, error) {
	args := m.Called(ctx, actor, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketService) Update(ctx context.Context, actor *models.Profile, unitID, ticketID uuid.UUID, in services.UpdateTicketInput) (*models.Ticket, error) {
	args := m.Called(ctx, actor, unitID, ticketID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

// MockReportService mocks the ReportService
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Summary(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*services.ReportSummary, error) {
	args := m.Called(ctx, actor, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReportSummary), args.Error(1)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendInvite(ctx context.Context, to, unitName, role, inviteLink string) (bool, error) {
	args := m.Called(ctx, to, unitName, role, inviteLink)
	return args.Bool(0), args.Error(1)
}

// MockBillingService mocks the BillingService
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) Apply(ctx context.Context, evt stripe.Event) (string, error) {
	args := m.Called(ctx, evt)
	return args.String(0), args.Error(1)
}

// MockHub mocks the SSE hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) SubscribeToUnit(clientID string, userID, unitID uuid.UUID) bool {
	args := m.Called(clientID, userID, unitID)
	return args.Bool(0)
}

func (m *MockHub) UnsubscribeFromUnit(clientID string, userID, unitID uuid.UUID) bool {
	args := m.Called(clientID, userID, unitID)
	return args.Bool(0)
}

func (m *MockHub) Publish(unitID uuid.UUID, eventType string, entityID uuid.UUID, version int, payload any) string {
	args := m.Called(unitID, eventType, entityID, version, payload)
	return args.String(0)
}
