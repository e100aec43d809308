package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mantty/host-api/internal/database"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/pkg/entitlements"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// ProfileOption configures a test profile
type ProfileOption func(*models.Profile)

func WithRole(role entitlements.Role) ProfileOption {
	return func(p *models.Profile) { p.Role = role }
}

func WithPlan(plan entitlements.Plan) ProfileOption {
	return func(p *models.Profile) { p.Plan = plan }
}

func WithExtraCapacity(n int) ProfileOption {
	return func(p *models.Profile) { p.ExtraCapacity = n }
}

// CreateProfile inserts a profile row the way the signup trigger would.
func (f *Fixtures) CreateProfile(t *testing.T, opts ...ProfileOption) *models.Profile {
	t.Helper()
	f.counter++

	p := &models.Profile{
		ID:       uuid.New(),
		Email:    fmt.Sprintf("user%d@example.com", f.counter),
		FullName: fmt.Sprintf("Test User %d", f.counter),
		Role:     entitlements.RoleResident,
		Plan:     entitlements.PlanBasic,
	}
	for _, opt := range opts {
		opt(p)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO profiles (id, email, full_name, role, plan, extra_capacity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, p.ID, p.Email, p.FullName, string(p.Role), string(p.Plan), p.ExtraCapacity).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return p
}

// CreateUnit inserts a unit owned by adminID without touching the owner's profile.
func (f *Fixtures) CreateUnit(t *testing.T, adminID uuid.UUID) *models.Unit {
	t.Helper()
	f.counter++

	u := &models.Unit{Name: fmt.Sprintf("Unit %d", f.counter), AdminID: adminID}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO units (name, address, admin_id)
		VALUES ($1, '', $2)
		RETURNING id, created_at
	`, u.Name, adminID).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		t.Fatalf("failed to create unit: %v", err)
	}
	return u
}
