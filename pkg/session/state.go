// Package session holds the client-side view of the signed-in actor and the
// flows that mutate it. State lives in an immutable Snapshot owned by a Store;
// the only way to change it is Store.Commit.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/mantty/host-api/pkg/entitlements"
)

// Snapshot is one version of the session. Values are never mutated after
// being committed; readers may keep them as long as they like.
type Snapshot struct {
	Version uint64
	// Ready is false until the profile row exists server side.
	Ready   bool
	Profile dto.ProfileResponse
}

func (s Snapshot) Role() entitlements.Role {
	return s.Profile.Role
}

func (s Snapshot) Plan() entitlements.Plan {
	return s.Profile.Plan
}

func (s Snapshot) ActiveUnitID() *uuid.UUID {
	if s.Profile.ActiveUnitID == nil {
		return nil
	}
	id := *s.Profile.ActiveUnitID
	return &id
}

// Capabilities are derived locally so they agree with the server's rules
// even before the profile response carries them.
func (s Snapshot) Capabilities() entitlements.Capabilities {
	if !s.Ready {
		return entitlements.Capabilities{}
	}
	return entitlements.CapabilitiesFor(s.Profile.Role, s.Profile.Plan)
}

func (s Snapshot) TotalUnitLimit() int {
	return entitlements.TotalUnitLimit(s.Profile.Plan, s.Profile.ExtraCapacity)
}

// Reducer derives the next snapshot from the current one. It must not keep
// references into its argument's pointer fields.
type Reducer func(Snapshot) Snapshot

type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Commit applies fn only if the store is still at base. It returns the
// resulting snapshot and whether fn was applied. A flow that captured base
// before a remote call uses this to drop results that arrived after someone
// else moved the session on.
func (s *Store) Commit(base uint64, fn Reducer) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Version != base {
		return s.snap, false
	}
	next := fn(s.snap)
	next.Version = base + 1
	s.snap = next
	return next, true
}

// Reset clears the session, e.g. on sign-out. Pending flows will find their
// base version gone and discard their results.
func (s *Store) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{Version: s.snap.Version + 1}
	return s.snap
}

func withProfile(p dto.ProfileResponse) Reducer {
	return func(Snapshot) Snapshot {
		if p.ActiveUnitID != nil {
			id := *p.ActiveUnitID
			p.ActiveUnitID = &id
		}
		return Snapshot{Ready: true, Profile: p}
	}
}
