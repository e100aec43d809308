package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/dto"
)

// EventStream yields realtime events one at a time. Next blocks until an
// event arrives, the stream ends, or ctx is done.
type EventStream interface {
	Next(ctx context.Context) (dto.Event, error)
}

const maxSeenEvents = 1024

// Projection is the local read model fed by realtime events. Delivery may
// repeat or reorder events: ids already seen and ticket versions not newer
// than the held one are ignored.
type Projection struct {
	mu      sync.RWMutex
	tickets map[uuid.UUID]dto.TicketResponse
	units   map[uuid.UUID]bool
	seen    map[string]struct{}
	order   []string

	// profileDirty is raised by events that change the actor's profile
	// server side; the owner reloads the session and clears it.
	profileDirty bool
}

func NewProjection() *Projection {
	return &Projection{
		tickets: make(map[uuid.UUID]dto.TicketResponse),
		units:   make(map[uuid.UUID]bool),
		seen:    make(map[string]struct{}),
	}
}

// Apply folds one event into the projection and reports whether it changed
// anything.
func (p *Projection) Apply(evt dto.Event) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if evt.ID != "" {
		if _, dup := p.seen[evt.ID]; dup {
			return false, nil
		}
		p.remember(evt.ID)
	}

	switch evt.Type {
	case dto.EventTicketCreated, dto.EventTicketUpdated:
		var ticket dto.TicketResponse
		if err := json.Unmarshal(evt.Data, &ticket); err != nil {
			return false, fmt.Errorf("failed to decode ticket event %s: %w", evt.ID, err)
		}
		if held, ok := p.tickets[ticket.ID]; ok && held.Version >= ticket.Version {
			return false, nil
		}
		p.tickets[ticket.ID] = ticket
		return true, nil

	case dto.EventUnitCreated:
		if p.units[evt.UnitID] {
			return false, nil
		}
		p.units[evt.UnitID] = true
		p.profileDirty = true
		return true, nil

	case dto.EventInvitationRedeemed, dto.EventProfileUpdated:
		p.profileDirty = true
		return true, nil

	default:
		return false, nil
	}
}

func (p *Projection) remember(id string) {
	if len(p.order) >= maxSeenEvents {
		delete(p.seen, p.order[0])
		p.order = p.order[1:]
	}
	p.seen[id] = struct{}{}
	p.order = append(p.order, id)
}

// Tickets returns the unit's tickets, oldest first.
func (p *Projection) Tickets(unitID uuid.UUID) []dto.TicketResponse {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]dto.TicketResponse, 0)
	for _, t := range p.tickets {
		if t.UnitID == unitID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Seed loads tickets fetched over HTTP without clobbering newer versions that
// already arrived as events.
func (p *Projection) Seed(tickets []dto.TicketResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range tickets {
		if held, ok := p.tickets[t.ID]; ok && held.Version >= t.Version {
			continue
		}
		p.tickets[t.ID] = t
	}
}

// TakeProfileDirty reports and clears the profile-changed flag.
func (p *Projection) TakeProfileDirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	dirty := p.profileDirty
	p.profileDirty = false
	return dirty
}

// Run applies events from stream until it fails or ctx is done. Undecodable
// events are skipped.
func (p *Projection) Run(ctx context.Context, stream EventStream, onChange func(dto.Event)) error {
	for {
		evt, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		changed, err := p.Apply(evt)
		if err != nil {
			continue
		}
		if changed && onChange != nil {
			onChange(evt)
		}
	}
}
