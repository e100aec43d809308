package sse

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/rs/zerolog"
)

type Client struct {
	ID     string
	UserID uuid.UUID
	Units  map[uuid.UUID]bool
	Send   chan []byte
}

// Hub fans unit-scoped events out to subscribed clients. All registration and
// delivery happens on the Run goroutine.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan dto.Event
	done       chan struct{}
	seq        atomic.Uint64
	mu         sync.RWMutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan dto.Event, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case evt := <-h.broadcast:
			data, err := json.Marshal(evt)
			if err != nil {
				h.log.Error().Err(err).Str("type", evt.Type).Msg("failed to encode event")
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if client.Units[evt.UnitID] {
					select {
					case client.Send <- data:
					default:
						h.log.Warn().Str("client_id", client.ID).Msg("client buffer full, event dropped")
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SubscribeToUnit adds unitID to the stream clientID. It reports false when
// no such stream is open for userID.
func (h *Hub) SubscribeToUnit(clientID string, userID, unitID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.UserID != userID {
		return false
	}
	client.Units[unitID] = true
	return true
}

func (h *Hub) UnsubscribeFromUnit(clientID string, userID, unitID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.UserID != userID {
		return false
	}
	delete(client.Units, unitID)
	return true
}

// Publish queues an event for unitID and returns the id assigned to it.
// Ids increase monotonically for the life of the hub.
func (h *Hub) Publish(unitID uuid.UUID, eventType string, entityID uuid.UUID, version int, payload any) string {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			h.log.Error().Err(err).Str("type", eventType).Msg("failed to encode event payload")
		} else {
			raw = b
		}
	}

	id := strconv.FormatUint(h.seq.Add(1), 10)
	evt := dto.Event{
		ID:       id,
		Type:     eventType,
		UnitID:   unitID,
		EntityID: entityID,
		Version:  version,
		Data:     raw,
	}
	select {
	case h.broadcast <- evt:
	case <-h.done:
	}
	return id
}
