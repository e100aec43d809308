package session

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/rs/zerolog"
)

// Backend is the remote surface the flows depend on. pkg/client implements
// it over HTTP; tests use in-memory doubles.
type Backend interface {
	GetProfile(ctx context.Context) (*dto.ProfileResponse, error)
	CountUnits(ctx context.Context) (*dto.UnitCountResponse, error)
	CreateUnit(ctx context.Context, req dto.CreateUnitRequest, idempotencyKey string) (*dto.CreateUnitResponse, error)
	SetActiveUnit(ctx context.Context, unitID uuid.UUID) (*dto.ProfileResponse, error)
	CreateInvitation(ctx context.Context, unitID uuid.UUID, role entitlements.Role) (*dto.InvitationResponse, error)
	RedeemInvitation(ctx context.Context, code string) (*dto.RedeemInvitationResponse, error)
}

// Result is what every flow reports. Failures carry a kind from the closed
// apperror set; nothing is thrown past the flow boundary.
type Result struct {
	Success bool
	Error   string
	Kind    apperror.Kind
	// Stale is set when the remote call succeeded but its outcome was not
	// applied to the session, either because the session moved on while it
	// was in flight or because the follow-up profile reload failed.
	Stale bool
	// RefreshError holds the reload failure when the mutation itself was
	// committed. The caller should reload, not repeat the mutation.
	RefreshError string
}

func succeeded() Result {
	return Result{Success: true}
}

func failure(err error) Result {
	appErr := apperror.From(err)
	return Result{Error: appErr.Error(), Kind: appErr.Kind}
}

// Err turns a failed Result back into an error usable with errors.Is.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &apperror.Error{Kind: r.Kind, Message: r.Error}
}

type Flows struct {
	backend Backend
	store   *Store
	log     zerolog.Logger
	newKey  func() string

	// Profile polling while the signup trigger catches up.
	pollInitial time.Duration
	pollMax     time.Duration
}

func NewFlows(backend Backend, store *Store, log zerolog.Logger) *Flows {
	return &Flows{
		backend:     backend,
		store:       store,
		log:         log,
		newKey:      func() string { return uuid.NewString() },
		pollInitial: 500 * time.Millisecond,
		pollMax:     5 * time.Second,
	}
}

func (f *Flows) Store() *Store {
	return f.store
}

// Load fetches the profile and commits it. ProfileNotReady is treated as a
// loading state and polled with exponential backoff until ctx is done.
func (f *Flows) Load(ctx context.Context) (Snapshot, error) {
	base := f.store.Snapshot().Version

	profile, err := f.fetchProfile(ctx)
	if err != nil {
		return f.store.Snapshot(), err
	}

	snap, applied := f.store.Commit(base, withProfile(*profile))
	if !applied {
		f.log.Debug().Uint64("base", base).Uint64("current", snap.Version).Msg("profile load discarded, session moved on")
	}
	return snap, nil
}

func (f *Flows) fetchProfile(ctx context.Context) (*dto.ProfileResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.pollInitial
	b.MaxInterval = f.pollMax
	b.MaxElapsedTime = 0

	var (
		profile  *dto.ProfileResponse
		notReady bool
	)
	op := func() error {
		p, err := f.backend.GetProfile(ctx)
		if err == nil {
			profile = p
			return nil
		}
		if errors.Is(err, apperror.ErrProfileNotReady) {
			notReady = true
			f.log.Debug().Msg("profile not provisioned yet, polling")
			return err
		}
		notReady = false
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if notReady {
			return nil, &apperror.Error{Kind: apperror.KindProfileNotReady, Message: "profile not ready", Err: ctx.Err()}
		}
		return nil, err
	}
	return profile, nil
}

// refresh reloads the profile after a successful mutation and commits it
// against base. The mutation already happened, so the Result is success
// either way; Stale reports a reload that was discarded or failed.
func (f *Flows) refresh(ctx context.Context, base uint64) Result {
	profile, err := f.backend.GetProfile(ctx)
	if err != nil {
		f.log.Warn().Err(err).Msg("profile reload after mutation failed")
		return Result{Success: true, Stale: true, RefreshError: apperror.From(err).Error()}
	}
	if ctx.Err() != nil {
		return Result{Success: true, Stale: true}
	}
	if _, applied := f.store.Commit(base, withProfile(*profile)); !applied {
		return Result{Success: true, Stale: true}
	}
	return succeeded()
}

// RequestNewUnit runs the quota-checked unit creation. The owned count is
// always fetched fresh; the pre-check only saves a round trip, the server
// enforces the same bound.
func (f *Flows) RequestNewUnit(ctx context.Context, name, address string) (*dto.UnitResponse, Result) {
	snap := f.store.Snapshot()
	if !snap.Ready {
		return nil, failure(apperror.ErrProfileNotReady)
	}

	count, err := f.backend.CountUnits(ctx)
	if err != nil {
		return nil, failure(err)
	}

	quota := entitlements.ComputeQuota(snap.Plan(), snap.Profile.ExtraCapacity, count.Count)
	if !quota.CanCreateMore {
		return nil, failure(apperror.QuotaExceeded(quota.TotalAllowed))
	}

	resp, err := f.backend.CreateUnit(ctx, dto.CreateUnitRequest{Name: name, Address: address}, f.newKey())
	if err != nil {
		return nil, failure(err)
	}

	unit := resp.Unit
	return &unit, f.refresh(ctx, snap.Version)
}

// SwitchActiveUnit is a no-op when unitID is already active. On failure the
// snapshot is left exactly as it was.
func (f *Flows) SwitchActiveUnit(ctx context.Context, unitID uuid.UUID) Result {
	snap := f.store.Snapshot()
	if !snap.Ready {
		return failure(apperror.ErrProfileNotReady)
	}
	if active := snap.ActiveUnitID(); active != nil && *active == unitID {
		return succeeded()
	}

	if _, err := f.backend.SetActiveUnit(ctx, unitID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return failure(apperror.RemoteFailure("unit not found", err))
		}
		return failure(err)
	}
	return f.refresh(ctx, snap.Version)
}

// CreateInvitation checks the issuer's entitlements locally, then persists
// the invitation. The join URL is the only artifact returned.
func (f *Flows) CreateInvitation(ctx context.Context, unitID uuid.UUID, role entitlements.Role) (string, Result) {
	snap := f.store.Snapshot()
	if !snap.Ready {
		return "", failure(apperror.ErrProfileNotReady)
	}
	if !entitlements.CanInviteRole(snap.Plan(), role) {
		return "", failure(apperror.PlanRestricted(entitlements.CapabilityProviderInvitations, "your plan does not allow inviting this role"))
	}
	if !entitlements.CanManageUnits(snap.Role()) {
		return "", failure(apperror.NotAuthorized("only unit administrators can invite"))
	}

	inv, err := f.backend.CreateInvitation(ctx, unitID, role)
	if err != nil {
		return "", failure(err)
	}
	if ctx.Err() != nil || f.store.Snapshot().Version != snap.Version {
		return inv.JoinURL, Result{Success: true, Stale: true}
	}
	return inv.JoinURL, succeeded()
}

// RedeemInvitation joins the unit behind code and reloads the profile, whose
// role and active unit the redemption changed.
func (f *Flows) RedeemInvitation(ctx context.Context, code string) (*dto.RedeemInvitationResponse, Result) {
	base := f.store.Snapshot().Version

	resp, err := f.backend.RedeemInvitation(ctx, code)
	if err != nil {
		return nil, failure(err)
	}
	return resp, f.refresh(ctx, base)
}
