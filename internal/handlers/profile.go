package handlers

import (
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/rs/zerolog/log"
)

type ProfileHandler struct {
	profileService ProfileServiceInterface
	unitService    UnitServiceInterface
	hub            HubInterface
}

func NewProfileHandler(profileService ProfileServiceInterface, unitService UnitServiceInterface, hub HubInterface) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		unitService:    unitService,
		hub:            hub,
	}
}

func (h *ProfileHandler) GetMe(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	h.respondProfile(c, profile)
}

func (h *ProfileHandler) UpdateMe(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	updated, err := h.profileService.Update(c.Request.Context(), profile.ID, req.FullName, req.Phone)
	if err != nil {
		respondError(c, err, "failed to update profile")
		return
	}
	h.respondProfile(c, updated)
}

func (h *ProfileHandler) SwitchActiveUnit(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}

	var req dto.SwitchUnitRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	updated, err := h.profileService.SetActiveUnit(c.Request.Context(), profile, req.UnitID)
	if err != nil {
		respondError(c, err, "failed to switch unit")
		return
	}
	h.respondProfile(c, updated)
}

// UpdatePlan lets a superadmin change another profile's plan and extra capacity.
func (h *ProfileHandler) UpdatePlan(c *drift.Context) {
	actor, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	if actor.Role != entitlements.RoleSuperAdmin {
		respondError(c, apperror.NotAuthorized("superadmin only"), "")
		return
	}

	targetID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePlanRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	updated, err := h.profileService.UpdatePlan(c.Request.Context(), targetID, req.Plan, req.ExtraCapacity)
	if err != nil {
		respondError(c, err, "failed to update plan")
		return
	}

	log.Info().
		Str("actor_id", actor.ID.String()).
		Str("profile_id", targetID.String()).
		Str("plan", string(updated.Plan)).
		Msg("plan changed by superadmin")

	if updated.ActiveUnitID != nil {
		h.hub.Publish(*updated.ActiveUnitID, dto.EventProfileUpdated, updated.ID, 0, nil)
	}
	h.respondProfile(c, updated)
}

func (h *ProfileHandler) respondProfile(c *drift.Context, profile *models.Profile) {
	resp := toProfileResponse(profile)
	if entitlements.CanManageUnits(profile.Role) {
		quota, err := h.unitService.Quota(c.Request.Context(), profile)
		if err != nil {
			respondError(c, err, "failed to compute quota")
			return
		}
		resp.Quota = &quota
	}
	_ = c.JSON(http.StatusOK, resp)
}

func toProfileResponse(p *models.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:            p.ID,
		Email:         p.Email,
		FullName:      p.FullName,
		Phone:         p.Phone,
		Role:          p.Role,
		Plan:          p.Plan,
		ActiveUnitID:  p.ActiveUnitID,
		ExtraCapacity: p.ExtraCapacity,
		Capabilities:  p.Capabilities(),
		UpdatedAt:     p.UpdatedAt,
	}
}
