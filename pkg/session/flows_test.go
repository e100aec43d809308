package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlows(t *testing.T, server *fakeServer, userID uuid.UUID) *Flows {
	t.Helper()
	f := NewFlows(server.as(userID), NewStore(), zerolog.Nop())
	f.pollInitial = time.Millisecond
	f.pollMax = 5 * time.Millisecond
	return f
}

func loadedFlows(t *testing.T, server *fakeServer, userID uuid.UUID) *Flows {
	t.Helper()
	f := newTestFlows(t, server, userID)
	_, err := f.Load(context.Background())
	require.NoError(t, err)
	return f
}

func TestFlows_Load_PollsUntilProvisioned(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleResident, entitlements.PlanBasic, 0)
	server.notReady[userID] = 3

	f := newTestFlows(t, server, userID)
	snap, err := f.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Ready)
	assert.Equal(t, entitlements.RoleResident, snap.Role())
	assert.Equal(t, 4, server.callCount("GetProfile"))
}

func TestFlows_Load_GivesUpWhenContextEnds(t *testing.T) {
	server := newFakeServer()
	userID := uuid.New()

	f := newTestFlows(t, server, userID)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	snap, err := f.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrProfileNotReady))
	assert.False(t, snap.Ready)
}

func TestFlows_SwitchActiveUnit_SameUnitIsNoop(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanPlus, 0)
	unitID := server.addUnits(userID, 1)[0]
	server.profiles[userID].ActiveUnitID = &unitID

	f := loadedFlows(t, server, userID)
	before := f.Store().Snapshot()

	res := f.SwitchActiveUnit(context.Background(), unitID)
	assert.True(t, res.Success)
	assert.Equal(t, 0, server.callCount("SetActiveUnit"))
	assert.Equal(t, before, f.Store().Snapshot())
}

func TestFlows_SwitchActiveUnit_ReloadsAuthoritativeProfile(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanBasic, 0)
	units := server.addUnits(userID, 2)
	server.profiles[userID].ActiveUnitID = &units[0]

	f := loadedFlows(t, server, userID)
	server.setPlan(userID, entitlements.PlanPlus)

	res := f.SwitchActiveUnit(context.Background(), units[1])
	require.True(t, res.Success, res.Error)

	snap := f.Store().Snapshot()
	assert.Equal(t, units[1], *snap.ActiveUnitID())
	assert.Equal(t, entitlements.PlanPlus, snap.Plan())
}

func TestFlows_SwitchActiveUnit_FailureLeavesSnapshot(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleResident, entitlements.PlanBasic, 0)
	foreign := server.addUnits(uuid.New(), 1)[0]

	f := loadedFlows(t, server, userID)
	before := f.Store().Snapshot()

	res := f.SwitchActiveUnit(context.Background(), foreign)
	assert.False(t, res.Success)
	assert.Equal(t, apperror.KindNotAuthorized, res.Kind)
	assert.Equal(t, before, f.Store().Snapshot())

	res = f.SwitchActiveUnit(context.Background(), uuid.New())
	assert.False(t, res.Success)
	assert.Equal(t, apperror.KindRemoteFailure, res.Kind)
	assert.Equal(t, before, f.Store().Snapshot())
}

func TestFlows_RequestNewUnit_BasicAtLimitMakesNoCreateCall(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanBasic, 0)
	server.addUnits(userID, 1)

	f := loadedFlows(t, server, userID)
	unit, res := f.RequestNewUnit(context.Background(), "Torre B", "")

	assert.Nil(t, unit)
	assert.False(t, res.Success)
	assert.Equal(t, apperror.KindQuotaExceeded, res.Kind)
	var appErr *apperror.Error
	require.True(t, errors.As(res.Err(), &appErr))
	assert.Equal(t, 0, server.callCount("CreateUnit"))
}

func TestFlows_RequestNewUnit_LimitCarriedForDisplay(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanBasic, 0)
	server.addUnits(userID, 1)

	f := loadedFlows(t, server, userID)
	_, res := f.RequestNewUnit(context.Background(), "Torre B", "")
	assert.Contains(t, res.Error, "1 allowed")
}

func TestFlows_RequestNewUnit_PlusWithExtraCapacity(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanPlus, 2)
	server.addUnits(userID, 6)

	f := loadedFlows(t, server, userID)

	unit, res := f.RequestNewUnit(context.Background(), "Torre 7", "Calle 7")
	require.True(t, res.Success, res.Error)
	require.NotNil(t, unit)
	assert.Equal(t, unit.ID, *f.Store().Snapshot().ActiveUnitID())

	count, err := server.as(userID).CountUnits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count.Count)
	assert.False(t, count.Quota.CanCreateMore)

	_, res = f.RequestNewUnit(context.Background(), "Torre 8", "")
	assert.Equal(t, apperror.KindQuotaExceeded, res.Kind)
	assert.Equal(t, 1, server.callCount("CreateUnit"))
}

func TestFlows_RequestNewUnit_FirstUnitThenQuotaExceeded(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleResident, entitlements.PlanBasic, 0)

	f := loadedFlows(t, server, userID)

	_, res := f.RequestNewUnit(context.Background(), "Mi Edificio", "")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, entitlements.RoleAdminUH, f.Store().Snapshot().Role())

	_, res = f.RequestNewUnit(context.Background(), "Segundo", "")
	assert.False(t, res.Success)
	assert.Equal(t, apperror.KindQuotaExceeded, res.Kind)
	appErr := apperror.From(res.Err())
	assert.Equal(t, apperror.KindQuotaExceeded, appErr.Kind)
	assert.Equal(t, 1, server.callCount("CreateUnit"))
}

func TestFlows_RequestNewUnit_SendsFreshIdempotencyKeys(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanMax, 0)

	f := loadedFlows(t, server, userID)
	var keys []string
	f.newKey = func() string {
		k := uuid.NewString()
		keys = append(keys, k)
		return k
	}

	_, res := f.RequestNewUnit(context.Background(), "A", "")
	require.True(t, res.Success)
	_, res = f.RequestNewUnit(context.Background(), "B", "")
	require.True(t, res.Success)

	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
	assert.Len(t, server.keys, 2)
}

func TestFlows_RequestNewUnit_StaleResultNotApplied(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanMax, 0)

	f := loadedFlows(t, server, userID)
	server.beforeReturn = func(method string) {
		if method == "CreateUnit" {
			f.Store().Reset()
		}
	}

	unit, res := f.RequestNewUnit(context.Background(), "A", "")
	assert.NotNil(t, unit)
	assert.True(t, res.Success)
	assert.True(t, res.Stale)
	assert.False(t, f.Store().Snapshot().Ready)
}

func TestFlows_RequestNewUnit_ReloadFailureStillReportsCreation(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanPlus, 0)

	f := loadedFlows(t, server, userID)
	server.beforeReturn = func(method string) {
		if method == "CreateUnit" {
			server.mu.Lock()
			server.notReady[userID] = 1
			server.mu.Unlock()
		}
	}

	unit, res := f.RequestNewUnit(context.Background(), "Torre A", "")
	require.NotNil(t, unit)
	assert.True(t, res.Success)
	assert.True(t, res.Stale)
	assert.NotEmpty(t, res.RefreshError)
	assert.Empty(t, res.Kind)
	assert.NoError(t, res.Err())
	assert.Equal(t, 1, server.ownedBy(userID))

	server.beforeReturn = nil
	snap, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, unit.ID, *snap.ActiveUnitID())
	assert.Equal(t, 1, server.callCount("CreateUnit"))
}

func TestFlows_RequestNewUnit_RequiresLoadedProfile(t *testing.T) {
	server := newFakeServer()
	userID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanMax, 0)

	f := newTestFlows(t, server, userID)
	_, res := f.RequestNewUnit(context.Background(), "A", "")
	assert.Equal(t, apperror.KindProfileNotReady, res.Kind)
	assert.Equal(t, 0, server.callCount("CountUnits"))
}

func TestFlows_CreateInvitation(t *testing.T) {
	tests := []struct {
		name    string
		role    entitlements.Role
		plan    entitlements.Plan
		target  entitlements.Role
		kind    apperror.Kind
		remotes int
	}{
		{"admin basic invites resident", entitlements.RoleAdminUH, entitlements.PlanBasic, entitlements.RoleResident, "", 1},
		{"admin basic invites provider", entitlements.RoleAdminUH, entitlements.PlanBasic, entitlements.RoleProvider, apperror.KindPlanRestricted, 0},
		{"admin plus invites provider", entitlements.RoleAdminUH, entitlements.PlanPlus, entitlements.RoleProvider, "", 1},
		{"resident cannot invite", entitlements.RoleResident, entitlements.PlanMax, entitlements.RoleResident, apperror.KindNotAuthorized, 0},
		{"resident basic invites provider", entitlements.RoleResident, entitlements.PlanBasic, entitlements.RoleProvider, apperror.KindPlanRestricted, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newFakeServer()
			userID := server.addProfile(tt.role, tt.plan, 0)
			unitID := server.addUnits(userID, 1)[0]

			f := loadedFlows(t, server, userID)
			joinURL, res := f.CreateInvitation(context.Background(), unitID, tt.target)

			assert.Equal(t, tt.remotes, server.callCount("CreateInvitation"))
			if tt.kind != "" {
				assert.False(t, res.Success)
				assert.Equal(t, tt.kind, res.Kind)
				assert.Empty(t, joinURL)
				return
			}
			require.True(t, res.Success, res.Error)
			assert.Contains(t, joinURL, "/join?")
			assert.Contains(t, joinURL, "unit="+unitID.String())
		})
	}
}

func TestFlows_RedeemInvitation_ExpiredRejectedWhileUnused(t *testing.T) {
	server := newFakeServer()
	adminID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanBasic, 0)
	unitID := server.addUnits(adminID, 1)[0]
	code := server.addInvitation(unitID, entitlements.RoleResident, server.now.Add(-time.Minute))
	userID := server.addProfile(entitlements.RoleResident, entitlements.PlanBasic, 0)

	f := loadedFlows(t, server, userID)
	_, res := f.RedeemInvitation(context.Background(), code)

	assert.False(t, res.Success)
	assert.Equal(t, apperror.KindInvitationExpired, res.Kind)
	assert.Nil(t, f.Store().Snapshot().ActiveUnitID())
}

func TestFlows_RedeemInvitation_AssignsUnit(t *testing.T) {
	server := newFakeServer()
	adminID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanPlus, 0)
	unitID := server.addUnits(adminID, 1)[0]
	code := server.addInvitation(unitID, entitlements.RoleProvider, server.now.Add(time.Hour))
	userID := server.addProfile(entitlements.RoleResident, entitlements.PlanBasic, 0)

	f := loadedFlows(t, server, userID)
	resp, res := f.RedeemInvitation(context.Background(), code)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, unitID, resp.UnitID)
	snap := f.Store().Snapshot()
	assert.Equal(t, entitlements.RoleProvider, snap.Role())
	assert.Equal(t, unitID, *snap.ActiveUnitID())
}

func TestFlows_RedeemInvitation_AdminKeepsRole(t *testing.T) {
	server := newFakeServer()
	ownerID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanBasic, 0)
	otherUnit := server.addUnits(ownerID, 1)[0]
	code := server.addInvitation(otherUnit, entitlements.RoleResident, server.now.Add(time.Hour))

	adminID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanBasic, 0)
	ownUnit := server.addUnits(adminID, 1)[0]
	f := loadedFlows(t, server, adminID)

	_, res := f.RedeemInvitation(context.Background(), code)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, entitlements.RoleAdminUH, f.Store().Snapshot().Role())

	joinURL, res := f.CreateInvitation(context.Background(), ownUnit, entitlements.RoleResident)
	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, joinURL)
}

func TestFlows_RedeemInvitation_ConcurrentExactlyOneSuccess(t *testing.T) {
	server := newFakeServer()
	adminID := server.addProfile(entitlements.RoleAdminUH, entitlements.PlanBasic, 0)
	unitID := server.addUnits(adminID, 1)[0]
	code := server.addInvitation(unitID, entitlements.RoleResident, server.now.Add(time.Hour))

	const attempts = 16
	flows := make([]*Flows, attempts)
	for i := range flows {
		flows[i] = loadedFlows(t, server, server.addProfile(entitlements.RoleResident, entitlements.PlanBasic, 0))
	}

	results := make([]Result, attempts)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range flows {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = flows[i].RedeemInvitation(context.Background(), code)
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, r := range results {
		if r.Success {
			successes++
			continue
		}
		assert.Equal(t, apperror.KindInvitationUsed, r.Kind)
	}
	assert.Equal(t, 1, successes)
}
