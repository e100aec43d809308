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

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UnitService struct {
	db *database.DB
}

func NewUnitService(db *database.DB) *UnitService {
	return &UnitService{db: db}
}

// CreateForAdmin creates a unit owned by adminID after re-checking the quota.
// The profile row is locked for the duration so concurrent requests from the
// same admin are serialized. created is false when idempotencyKey matched an
// existing unit.
func (s *UnitService) CreateForAdmin(ctx context.Context, adminID uuid.UUID, name, address, idempotencyKey string) (unit *models.Unit, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperror.New(apperror.KindInvalidInput, "unit name is required")
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var roleStr, planStr string
	var extra int
	err = tx.QueryRow(ctx, `
		SELECT role, plan, extra_capacity FROM profiles WHERE id = $1 FOR UPDATE
	`, adminID).Scan(&roleStr, &planStr, &extra)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperror.ErrProfileNotReady
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock profile: %w", err)
	}
	role, _ := entitlements.ParseRole(roleStr)
	plan, _ := entitlements.ParsePlan(planStr)

	if idempotencyKey != "" {
		existing, err := scanUnit(tx.QueryRow(ctx, `
			SELECT id, name, address, admin_id, created_at
			FROM units WHERE admin_id = $1 AND idempotency_key = $2
		`, adminID, idempotencyKey))
		if err == nil {
			if err := tx.Commit(ctx); err != nil {
				return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
			}
			return existing, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	var owned int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM units WHERE admin_id = $1`, adminID).Scan(&owned); err != nil {
		return nil, false, fmt.Errorf("failed to count units: %w", err)
	}

	quota := entitlements.ComputeQuota(plan, extra, owned)
	if !quota.CanCreateMore {
		return nil, false, apperror.QuotaExceeded(quota.TotalAllowed)
	}

	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
	}
	unit, err = scanUnit(tx.QueryRow(ctx, `
		INSERT INTO units (name, address, admin_id, idempotency_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, address, admin_id, created_at
	`, name, strings.TrimSpace(address), adminID, key))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create unit: %w", err)
	}

	newRole := entitlements.RoleAdminUH
	if role == entitlements.RoleSuperAdmin {
		newRole = role
	}
	_, err = tx.Exec(ctx, `
		UPDATE profiles SET role = $2, active_unit_id = $3, updated_at = NOW()
		WHERE id = $1
	`, adminID, string(newRole), unit.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update admin profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return unit, true, nil
}

func (s *UnitService) CountOwned(ctx context.Context, adminID uuid.UUID) (int, error) {
	var count int
	err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM units WHERE admin_id = $1`, adminID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count units: %w", err)
	}
	return count, nil
}

// Quota recomputes the profile's allowance from a fresh owned-unit count.
func (s *UnitService) Quota(ctx context.Context, profile *models.Profile) (entitlements.Quota, error) {
	owned, err := s.CountOwned(ctx, profile.ID)
	if err != nil {
		return entitlements.Quota{}, err
	}
	return entitlements.ComputeQuota(profile.Plan, profile.ExtraCapacity, owned), nil
}

func (s *UnitService) GetByID(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	unit, err := scanUnit(s.db.Pool.QueryRow(ctx, `
		SELECT id, name, address, admin_id, created_at FROM units WHERE id = $1
	`, unitID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "unit not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return unit, nil
}

// ListAccessible returns the units the actor owns or belongs to, or every unit
// for a superadmin.
func (s *UnitService) ListAccessible(ctx context.Context, actor *models.Profile) ([]models.UnitAccess, error) {
	var rows pgx.Rows
	var err error
	if actor.Role == entitlements.RoleSuperAdmin {
		rows, err = s.db.Pool.Query(ctx, `
			SELECT id, name, address, admin_id, created_at, $1::text
			FROM units ORDER BY created_at
		`, string(entitlements.RoleSuperAdmin))
	} else {
		rows, err = s.db.Pool.Query(ctx, `
			SELECT u.id, u.name, u.address, u.admin_id, u.created_at, $2::text
			FROM units u WHERE u.admin_id = $1
			UNION ALL
			SELECT u.id, u.name, u.address, u.admin_id, u.created_at, m.role
			FROM units u
			JOIN unit_members m ON m.unit_id = u.id
			WHERE m.profile_id = $1 AND u.admin_id <> $1
			ORDER BY 5
		`, actor.ID, string(entitlements.RoleAdminUH))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	units := []models.UnitAccess{}
	for rows.Next() {
		var u models.UnitAccess
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Address, &u.AdminID, &u.CreatedAt, &role); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		u.Role, _ = entitlements.ParseRole(role)
		units = append(units, u)
	}
	return units, rows.Err()
}

// Authorize returns the unit when the actor owns it, belongs to it or is a superadmin.
func (s *UnitService) Authorize(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*models.Unit, error) {
	return authorizeUnit(ctx, s.db.Pool, actor, unitID, false)
}

// AuthorizeManage is Authorize restricted to the owning admin or a superadmin.
func (s *UnitService) AuthorizeManage(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*models.Unit, error) {
	return authorizeUnit(ctx, s.db.Pool, actor, unitID, true)
}

func authorizeUnit(ctx context.Context, q querier, actor *models.Profile, unitID uuid.UUID, manage bool) (*models.Unit, error) {
	unit, err := scanUnit(q.QueryRow(ctx, `
		SELECT id, name, address, admin_id, created_at FROM units WHERE id = $1
	`, unitID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "unit not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}

	if actor.Role == entitlements.RoleSuperAdmin || unit.AdminID == actor.ID {
		return unit, nil
	}
	if manage {
		return nil, apperror.NotAuthorized("only the unit admin can do this")
	}

	var member bool
	err = q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM unit_members WHERE unit_id = $1 AND profile_id = $2)
	`, unitID, actor.ID).Scan(&member)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, apperror.NotAuthorized("no access to this unit")
	}
	return unit, nil
}

func scanUnit(row pgx.Row) (*models.Unit, error) {
	var u models.Unit
	if err := row.Scan(&u.ID, &u.Name, &u.Address, &u.AdminID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
