package handlers

import (
	"net/http"
	"strings"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/pkg/dto"
)

type UnitHandler struct {
	profileService ProfileServiceInterface
	unitService    UnitServiceInterface
	hub            HubInterface
}

func NewUnitHandler(profileService ProfileServiceInterface, unitService UnitServiceInterface, hub HubInterface) *UnitHandler {
	return &UnitHandler{
		profileService: profileService,
		unitService:    unitService,
		hub:            hub,
	}
}

func (h *UnitHandler) List(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}

	units, err := h.unitService.ListAccessible(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err, "failed to list units")
		return
	}

	response := make([]dto.UnitResponse, len(units))
	for i, u := range units {
		response[i] = toUnitResponse(&u.Unit)
		response[i].Role = u.Role
	}
	_ = c.JSON(http.StatusOK, response)
}

// Count reports the caller's owned units together with the quota derived from them.
func (h *UnitHandler) Count(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}

	quota, err := h.unitService.Quota(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err, "failed to count units")
		return
	}
	_ = c.JSON(http.StatusOK, dto.UnitCountResponse{Count: quota.SlotsUsed, Quota: quota})
}

// Create is the create-unit function. The quota is re-checked server side
// regardless of what the client already verified.
func (h *UnitHandler) Create(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}

	var req dto.CreateUnitRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	unit, created, err := h.unitService.CreateForAdmin(c.Request.Context(), profile.ID, req.Name, req.Address, key)
	if err != nil {
		respondError(c, err, "failed to create unit")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.hub.Publish(unit.ID, dto.EventUnitCreated, unit.ID, 1, toUnitResponse(unit))
	}
	_ = c.JSON(status, dto.CreateUnitResponse{Success: true, Unit: toUnitResponse(unit)})
}

func toUnitResponse(u *models.Unit) dto.UnitResponse {
	return dto.UnitResponse{
		ID:        u.ID,
		Name:      u.Name,
		Address:   u.Address,
		AdminID:   u.AdminID,
		CreatedAt: u.CreatedAt,
	}
}
