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
	"github.com/rs/zerolog"
)

const profileColumns = `id, email, full_name, phone, role, plan, active_unit_id, extra_capacity, created_at, updated_at`

type ProfileService struct {
	db  *database.DB
	log zerolog.Logger
}

func NewProfileService(db *database.DB, log zerolog.Logger) *ProfileService {
	return &ProfileService{db: db, log: log}
}

// Get loads a profile. A missing row means the signup trigger has not run yet
// and is reported as ProfileNotReady.
func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := s.scanProfile(s.db.Pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.New(apperror.KindProfileNotReady, "profile is not provisioned yet")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, id uuid.UUID, fullName string, phone *string) (*models.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "full name is required")
	}

	p, err := s.scanProfile(s.db.Pool.QueryRow(ctx, `
		UPDATE profiles SET full_name = $2, phone = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileColumns, id, fullName, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.New(apperror.KindProfileNotReady, "profile is not provisioned yet")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

// SetActiveUnit points the actor's active unit at unitID after checking access.
func (s *ProfileService) SetActiveUnit(ctx context.Context, actor *models.Profile, unitID uuid.UUID) (*models.Profile, error) {
	if actor.ActiveUnitID != nil && *actor.ActiveUnitID == unitID {
		return actor, nil
	}

	if _, err := authorizeUnit(ctx, s.db.Pool, actor, unitID, false); err != nil {
		return nil, err
	}

	p, err := s.scanProfile(s.db.Pool.QueryRow(ctx, `
		UPDATE profiles SET active_unit_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileColumns, actor.ID, unitID))
	if err != nil {
		return nil, fmt.Errorf("failed to switch active unit: %w", err)
	}
	return p, nil
}

// UpdatePlan sets the plan and, when extraCapacity is non-nil, the extra capacity.
func (s *ProfileService) UpdatePlan(ctx context.Context, id uuid.UUID, plan string, extraCapacity *int) (*models.Profile, error) {
	p, ok := entitlements.ParsePlan(plan)
	if !ok {
		return nil, apperror.New(apperror.KindInvalidInput, "unknown plan: "+plan)
	}
	if extraCapacity != nil && *extraCapacity < 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "extra capacity cannot be negative")
	}

	profile, err := s.scanProfile(s.db.Pool.QueryRow(ctx, `
		UPDATE profiles SET plan = $2, extra_capacity = COALESCE($3, extra_capacity), updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileColumns, id, string(p), extraCapacity))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.log.Info().
		Str("profile_id", id.String()).
		Str("plan", string(p)).
		Int("extra_capacity", profile.ExtraCapacity).
		Msg("plan updated")
	return profile, nil
}

func (s *ProfileService) PromoteToSuperAdmin(ctx context.Context, email string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE profiles SET role = $2, updated_at = NOW() WHERE email = $1
	`, email, string(entitlements.RoleSuperAdmin))
	if err != nil {
		return fmt.Errorf("failed to promote profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "no profile with email "+email)
	}
	return nil
}

func (s *ProfileService) scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	var role, plan string
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &role, &plan,
		&p.ActiveUnitID, &p.ExtraCapacity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	var known bool
	if p.Role, known = entitlements.ParseRole(role); !known {
		s.log.Warn().Str("profile_id", p.ID.String()).Str("role", role).Msg("unrecognized role")
	}
	if p.Plan, known = entitlements.ParsePlan(plan); !known {
		s.log.Warn().Str("profile_id", p.ID.String()).Str("plan", plan).Msg("unrecognized plan, treating as basic")
	}
	return &p, nil
}
