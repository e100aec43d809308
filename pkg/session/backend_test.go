package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/mantty/host-api/pkg/invitecode"
)

// fakeServer is an in-memory backend with the same atomicity guarantees as
// the real one: quota-checked creation and conditional redemption happen
// under one lock.
type fakeServer struct {
	mu          sync.Mutex
	now         time.Time
	profiles    map[uuid.UUID]*dto.ProfileResponse
	notReady    map[uuid.UUID]int
	units       map[uuid.UUID]*fakeUnit
	keys        map[string]uuid.UUID
	invitations map[string]*fakeInvitation
	calls       map[string]int

	// beforeReturn runs after a mutation is applied but before the call returns.
	beforeReturn func(method string)
}

type fakeUnit struct {
	name    string
	adminID uuid.UUID
	members map[uuid.UUID]entitlements.Role
}

type fakeInvitation struct {
	unitID    uuid.UUID
	role      entitlements.Role
	expiresAt time.Time
	usedBy    *uuid.UUID
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		now:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		profiles:    make(map[uuid.UUID]*dto.ProfileResponse),
		notReady:    make(map[uuid.UUID]int),
		units:       make(map[uuid.UUID]*fakeUnit),
		keys:        make(map[string]uuid.UUID),
		invitations: make(map[string]*fakeInvitation),
		calls:       make(map[string]int),
	}
}

func (s *fakeServer) addProfile(role entitlements.Role, plan entitlements.Plan, extra int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.profiles[id] = &dto.ProfileResponse{ID: id, Role: role, Plan: plan, ExtraCapacity: extra}
	return id
}

func (s *fakeServer) addUnits(adminID uuid.UUID, n int) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
		s.units[ids[i]] = &fakeUnit{name: "Unit", adminID: adminID, members: map[uuid.UUID]entitlements.Role{}}
	}
	return ids
}

func (s *fakeServer) addInvitation(unitID uuid.UUID, role entitlements.Role, expiresAt time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, err := invitecode.Generate()
	if err != nil {
		panic(err)
	}
	s.invitations[code] = &fakeInvitation{unitID: unitID, role: role, expiresAt: expiresAt}
	return code
}

func (s *fakeServer) callCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *fakeServer) setPlan(id uuid.UUID, plan entitlements.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[id].Plan = plan
}

func (s *fakeServer) as(userID uuid.UUID) *fakeBackend {
	return &fakeBackend{server: s, userID: userID}
}

func (s *fakeServer) hook(method string) {
	if s.beforeReturn != nil {
		s.beforeReturn(method)
	}
}

type fakeBackend struct {
	server *fakeServer
	userID uuid.UUID
}

func (b *fakeBackend) GetProfile(ctx context.Context) (*dto.ProfileResponse, error) {
	s := b.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["GetProfile"]++

	if s.notReady[b.userID] > 0 {
		s.notReady[b.userID]--
		return nil, apperror.ErrProfileNotReady
	}
	p, ok := s.profiles[b.userID]
	if !ok {
		return nil, apperror.ErrProfileNotReady
	}
	out := *p
	out.Capabilities = entitlements.CapabilitiesFor(p.Role, p.Plan)
	return &out, nil
}

func (s *fakeServer) ownedBy(adminID uuid.UUID) int {
	n := 0
	for _, u := range s.units {
		if u.adminID == adminID {
			n++
		}
	}
	return n
}

func (b *fakeBackend) CountUnits(ctx context.Context) (*dto.UnitCountResponse, error) {
	s := b.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["CountUnits"]++

	p := s.profiles[b.userID]
	count := s.ownedBy(b.userID)
	return &dto.UnitCountResponse{Count: count, Quota: entitlements.ComputeQuota(p.Plan, p.ExtraCapacity, count)}, nil
}

func (b *fakeBackend) CreateUnit(ctx context.Context, req dto.CreateUnitRequest, key string) (*dto.CreateUnitResponse, error) {
	s := b.server
	s.mu.Lock()
	s.calls["CreateUnit"]++

	p := s.profiles[b.userID]
	if id, seen := s.keys[b.userID.String()+"/"+key]; key != "" && seen {
		s.mu.Unlock()
		return &dto.CreateUnitResponse{Success: true, Unit: dto.UnitResponse{ID: id, Name: req.Name, AdminID: b.userID}}, nil
	}

	quota := entitlements.ComputeQuota(p.Plan, p.ExtraCapacity, s.ownedBy(b.userID))
	if !quota.CanCreateMore {
		s.mu.Unlock()
		return nil, apperror.QuotaExceeded(quota.TotalAllowed)
	}

	id := uuid.New()
	s.units[id] = &fakeUnit{name: req.Name, adminID: b.userID, members: map[uuid.UUID]entitlements.Role{}}
	if key != "" {
		s.keys[b.userID.String()+"/"+key] = id
	}
	if p.Role != entitlements.RoleSuperAdmin {
		p.Role = entitlements.RoleAdminUH
	}
	p.ActiveUnitID = &id
	s.mu.Unlock()

	s.hook("CreateUnit")
	return &dto.CreateUnitResponse{Success: true, Unit: dto.UnitResponse{ID: id, Name: req.Name, AdminID: b.userID}}, nil
}

func (b *fakeBackend) SetActiveUnit(ctx context.Context, unitID uuid.UUID) (*dto.ProfileResponse, error) {
	s := b.server
	s.mu.Lock()
	s.calls["SetActiveUnit"]++

	p := s.profiles[b.userID]
	u, ok := s.units[unitID]
	if !ok {
		s.mu.Unlock()
		return nil, apperror.ErrNotFound
	}
	if _, member := u.members[b.userID]; p.Role != entitlements.RoleSuperAdmin && u.adminID != b.userID && !member {
		s.mu.Unlock()
		return nil, apperror.NotAuthorized("no access to unit")
	}
	id := unitID
	p.ActiveUnitID = &id
	out := *p
	s.mu.Unlock()

	s.hook("SetActiveUnit")
	return &out, nil
}

func (b *fakeBackend) CreateInvitation(ctx context.Context, unitID uuid.UUID, role entitlements.Role) (*dto.InvitationResponse, error) {
	s := b.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["CreateInvitation"]++

	p := s.profiles[b.userID]
	if !entitlements.CanInviteRole(p.Plan, role) {
		return nil, apperror.PlanRestricted(entitlements.CapabilityProviderInvitations, "upgrade required")
	}
	if !entitlements.CanManageUnits(p.Role) {
		return nil, apperror.NotAuthorized("only unit administrators can invite")
	}
	u, ok := s.units[unitID]
	if !ok {
		return nil, apperror.ErrNotFound
	}

	code, err := invitecode.Generate()
	if err != nil {
		return nil, err
	}
	expires := s.now.Add(7 * 24 * time.Hour)
	s.invitations[code] = &fakeInvitation{unitID: unitID, role: role, expiresAt: expires}
	return &dto.InvitationResponse{
		Code:      code,
		UnitID:    unitID,
		Role:      role,
		ExpiresAt: expires,
		JoinURL:   invitecode.JoinURL("https://app.mantty.test", unitID, code, u.name),
	}, nil
}

func (b *fakeBackend) RedeemInvitation(ctx context.Context, code string) (*dto.RedeemInvitationResponse, error) {
	s := b.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["RedeemInvitation"]++

	inv, ok := s.invitations[code]
	switch {
	case !ok:
		return nil, apperror.ErrInvitationNotFound
	case inv.usedBy != nil:
		return nil, apperror.ErrInvitationUsed
	case !s.now.Before(inv.expiresAt):
		return nil, apperror.ErrInvitationExpired
	}

	redeemer := b.userID
	inv.usedBy = &redeemer
	s.units[inv.unitID].members[redeemer] = inv.role

	p := s.profiles[redeemer]
	if !entitlements.CanManageUnits(p.Role) {
		p.Role = inv.role
	}
	unitID := inv.unitID
	p.ActiveUnitID = &unitID
	return &dto.RedeemInvitationResponse{UnitID: unitID, Role: inv.role}, nil
}
