package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mantty/host-api/internal/database"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/mantty/host-api/pkg/invitecode"
)

const invitationColumns = `code, unit_id, role, created_by, expires_at, used_at, used_by, created_at`

const maxCodeAttempts = 3

type InvitationService struct {
	db          *database.DB
	joinBaseURL string
	now         func() time.Time
	newCode     func() (string, error)
}

func NewInvitationService(db *database.DB, joinBaseURL string) *InvitationService {
	return &InvitationService{
		db:          db,
		joinBaseURL: joinBaseURL,
		now:         time.Now,
		newCode:     invitecode.Generate,
	}
}

// InvitationPreview is what an invitee sees before redeeming a code.
type InvitationPreview struct {
	Invitation *models.Invitation
	UnitName   string
	Status     string
}

// Create issues an invitation for unitID and returns it with its join URL.
func (s *InvitationService) Create(ctx context.Context, issuer *models.Profile, unitID uuid.UUID, role string) (*models.Invitation, string, error) {
	target, ok := entitlements.ParseRole(role)
	if !ok || target == entitlements.RoleSuperAdmin {
		return nil, "", apperror.New(apperror.KindInvalidInput, "invalid invitation role: "+role)
	}
	// Plan first, then role: clients run the same checks in the same order.
	if !entitlements.CanInviteRole(issuer.Plan, target) {
		return nil, "", apperror.PlanRestricted(entitlements.CapabilityProviderInvitations,
			"provider invitations require the plus or max plan")
	}
	if !entitlements.CanManageUnits(issuer.Role) {
		return nil, "", apperror.NotAuthorized("only unit admins can invite")
	}

	unit, err := authorizeUnit(ctx, s.db.Pool, issuer, unitID, true)
	if err != nil {
		return nil, "", err
	}

	expiresAt := s.now().Add(models.InvitationTTL)
	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate invitation code: %w", err)
		}

		inv, err := scanInvitation(s.db.Pool.QueryRow(ctx, `
			INSERT INTO invitations (code, unit_id, role, created_by, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+invitationColumns, code, unitID, string(target), issuer.ID, expiresAt))
		if isUniqueViolation(err) && attempt < maxCodeAttempts {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to create invitation: %w", err)
		}
		return inv, invitecode.JoinURL(s.joinBaseURL, unitID, inv.Code, unit.Name), nil
	}
}

func (s *InvitationService) Preview(ctx context.Context, code string) (*InvitationPreview, error) {
	var inv models.Invitation
	var role, unitName string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT i.code, i.unit_id, i.role, i.created_by, i.expires_at, i.used_at, i.used_by, i.created_at, u.name
		FROM invitations i
		JOIN units u ON u.id = i.unit_id
		WHERE i.code = $1
	`, code).Scan(&inv.Code, &inv.UnitID, &role, &inv.CreatedBy, &inv.ExpiresAt,
		&inv.UsedAt, &inv.UsedBy, &inv.CreatedAt, &unitName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	inv.Role, _ = entitlements.ParseRole(role)

	return &InvitationPreview{Invitation: &inv, UnitName: unitName, Status: inv.Status(s.now())}, nil
}

func (s *InvitationService) List(ctx context.Context, actor *models.Profile, unitID uuid.UUID) ([]models.Invitation, error) {
	if _, err := authorizeUnit(ctx, s.db.Pool, actor, unitID, true); err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations WHERE unit_id = $1
		ORDER BY created_at DESC
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

// Revoke deletes an unused invitation.
func (s *InvitationService) Revoke(ctx context.Context, actor *models.Profile, unitID uuid.UUID, code string) error {
	if _, err := authorizeUnit(ctx, s.db.Pool, actor, unitID, true); err != nil {
		return err
	}

	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM invitations WHERE code = $1 AND unit_id = $2 AND used_at IS NULL
	`, code, unitID)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var used bool
	err = s.db.Pool.QueryRow(ctx, `
		SELECT used_at IS NOT NULL FROM invitations WHERE code = $1 AND unit_id = $2
	`, code, unitID).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.ErrInvitationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check invitation: %w", err)
	}
	return apperror.New(apperror.KindInvitationUsed, "invitation was already used")
}

// Redeem consumes the code for redeemerID. The conditional UPDATE is the only
// gate: of several concurrent redemptions exactly one sees a row back.
func (s *InvitationService) Redeem(ctx context.Context, redeemerID uuid.UUID, code string) (*models.Invitation, error) {
	if !invitecode.Valid(code) {
		return nil, apperror.ErrInvitationNotFound
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inv, err := scanInvitation(tx.QueryRow(ctx, `
		UPDATE invitations SET used_at = NOW(), used_by = $2
		WHERE code = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING `+invitationColumns, code, redeemerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classifyUnredeemable(ctx, tx, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to redeem invitation: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO unit_members (unit_id, profile_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (unit_id, profile_id) DO UPDATE SET role = EXCLUDED.role
	`, inv.UnitID, redeemerID, string(inv.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to add unit member: %w", err)
	}

	// Unit managers keep their role; the per-unit role lives in unit_members.
	tag, err := tx.Exec(ctx, `
		UPDATE profiles
		SET role = CASE WHEN role IN ($4, $5) THEN role ELSE $2 END,
		    active_unit_id = $3, updated_at = NOW()
		WHERE id = $1
	`, redeemerID, string(inv.Role), inv.UnitID,
		string(entitlements.RoleSuperAdmin), string(entitlements.RoleAdminUH))
	if err != nil {
		return nil, fmt.Errorf("failed to update redeemer profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.ErrProfileNotReady
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inv, nil
}

func (s *InvitationService) classifyUnredeemable(ctx context.Context, q querier, code string) error {
	var usedAt *time.Time
	var expiresAt time.Time
	err := q.QueryRow(ctx, `
		SELECT used_at, expires_at FROM invitations WHERE code = $1
	`, code).Scan(&usedAt, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.ErrInvitationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to classify invitation: %w", err)
	}

	inv := models.Invitation{UsedAt: usedAt, ExpiresAt: expiresAt}
	if inv.Status(s.now()) == models.InvitationStatusUsed {
		return apperror.New(apperror.KindInvitationUsed, "invitation was already used")
	}
	return apperror.New(apperror.KindInvitationExpired, "invitation has expired")
}

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	var role string
	err := row.Scan(&inv.Code, &inv.UnitID, &role, &inv.CreatedBy, &inv.ExpiresAt,
		&inv.UsedAt, &inv.UsedBy, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.Role, _ = entitlements.ParseRole(role)
	return &inv, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
