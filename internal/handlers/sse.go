package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mantty/host-api/internal/middleware"
	"github.com/mantty/host-api/internal/sse"
	"github.com/mantty/host-api/pkg/dto"
)

type SSEHandler struct {
	hub            HubInterface
	profileService ProfileServiceInterface
	unitService    UnitServiceInterface
}

func NewSSEHandler(hub HubInterface, profileService ProfileServiceInterface, unitService UnitServiceInterface) *SSEHandler {
	return &SSEHandler{
		hub:            hub,
		profileService: profileService,
		unitService:    unitService,
	}
}

// Connect streams the events of one unit. Each frame carries the hub's event
// id so clients can drop anything they have already applied.
func (h *SSEHandler) Connect(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}

	if _, err := h.unitService.Authorize(c.Request.Context(), profile, unitID); err != nil {
		respondError(c, err, "failed to authorize unit")
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:     clientID,
		UserID: profile.ID,
		Units:  map[uuid.UUID]bool{unitID: true},
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
		"unit_id":   unitID.String(),
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			var head struct {
				ID   string `json:"id"`
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &head); err != nil {
				continue
			}
			if err := sseCtx.Send(string(msg), head.Type, head.ID); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// Subscribe adds another unit to an open stream.
func (h *SSEHandler) Subscribe(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}

	if _, err := h.unitService.Authorize(c.Request.Context(), profile, unitID); err != nil {
		respondError(c, err, "failed to authorize unit")
		return
	}

	if !h.hub.SubscribeToUnit(clientID, profile.ID, unitID) {
		c.NotFound("stream not found")
		return
	}
	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: fmt.Sprintf("subscribed to unit %s", unitID)})
}

func (h *SSEHandler) Unsubscribe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}
	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}

	if !h.hub.UnsubscribeFromUnit(clientID, userID, unitID) {
		c.NotFound("stream not found")
		return
	}
	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: fmt.Sprintf("unsubscribed from unit %s", unitID)})
}
