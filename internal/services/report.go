package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mantty/host-api/internal/database"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/entitlements"
)

type ReportService struct {
	db *database.DB
}

func NewReportService(db *database.DB) *ReportService {
	return &ReportService{db: db}
}

type ReportSummary struct {
	UnitID   uuid.UUID
	Total    int
	ByStatus map[string]int
}

// Summary counts a unit's tickets by status. Admins on the basic plan are
// refused by plan, other roles by role.
func (s *ReportService) Summary(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*ReportSummary, error) {
	if !entitlements.CanViewReports(actor.Role, actor.Plan) {
		if actor.Role == entitlements.RoleAdminUH {
			return nil, apperror.PlanRestricted(entitlements.CapabilityReports, "reports require the plus or max plan")
		}
		return nil, apperror.NotAuthorized("your role cannot view reports")
	}

	if _, err := authorizeUnit(ctx, s.db.Pool, actor, unitID, true); err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT status, COUNT(*) FROM tickets WHERE unit_id = $1 GROUP BY status
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize tickets: %w", err)
	}
	defer rows.Close()

	summary := &ReportSummary{
		UnitID: unitID,
		ByStatus: map[string]int{
			models.TicketStatusOpen:       0,
			models.TicketStatusInProgress: 0,
			models.TicketStatusResolved:   0,
			models.TicketStatusClosed:     0,
		},
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summary.ByStatus[status] = count
		summary.Total += count
	}
	return summary, rows.Err()
}
