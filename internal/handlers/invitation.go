package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mantty/host-api/internal/middleware"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/pkg/dto"
)

type InvitationHandler struct {
	profileService    ProfileServiceInterface
	invitationService InvitationServiceInterface
	emailService      EmailServiceInterface
	hub               HubInterface
}

func NewInvitationHandler(profileService ProfileServiceInterface, invitationService InvitationServiceInterface, emailService EmailServiceInterface, hub HubInterface) *InvitationHandler {
	return &InvitationHandler{
		profileService:    profileService,
		invitationService: invitationService,
		emailService:      emailService,
		hub:               hub,
	}
}

func (h *InvitationHandler) Create(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}

	var req dto.CreateInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	inv, joinURL, err := h.invitationService.Create(c.Request.Context(), profile, unitID, req.Role)
	if err != nil {
		respondError(c, err, "failed to create invitation")
		return
	}

	resp := toInvitationResponse(inv)
	resp.JoinURL = joinURL
	_ = c.JSON(http.StatusCreated, resp)
}

func (h *InvitationHandler) List(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}

	invitations, err := h.invitationService.List(c.Request.Context(), profile, unitID)
	if err != nil {
		respondError(c, err, "failed to list invitations")
		return
	}

	response := make([]dto.InvitationResponse, len(invitations))
	for i := range invitations {
		response[i] = toInvitationResponse(&invitations[i])
	}
	_ = c.JSON(http.StatusOK, response)
}

func (h *InvitationHandler) Revoke(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}

	if err := h.invitationService.Revoke(c.Request.Context(), profile, unitID, c.Param("code")); err != nil {
		respondError(c, err, "failed to revoke invitation")
		return
	}
	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "invitation revoked"})
}

// Preview is public: the join page shows it before the invitee signs in.
func (h *InvitationHandler) Preview(c *drift.Context) {
	preview, err := h.invitationService.Preview(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err, "failed to load invitation")
		return
	}

	_ = c.JSON(http.StatusOK, dto.InvitationPreviewResponse{
		UnitID:    preview.Invitation.UnitID,
		UnitName:  preview.UnitName,
		Role:      preview.Invitation.Role,
		ExpiresAt: preview.Invitation.ExpiresAt,
		Status:    preview.Status,
	})
}

func (h *InvitationHandler) Redeem(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	inv, err := h.invitationService.Redeem(c.Request.Context(), userID, c.Param("code"))
	if err != nil {
		respondError(c, err, "failed to redeem invitation")
		return
	}

	h.hub.Publish(inv.UnitID, dto.EventInvitationRedeemed, userID, 0, map[string]string{
		"code": inv.Code,
		"role": string(inv.Role),
	})
	_ = c.JSON(http.StatusOK, dto.RedeemInvitationResponse{UnitID: inv.UnitID, Role: inv.Role})
}

// SendEmail is the send-invite-email function. Without a configured provider
// the send is simulated and still reported as a success.
func (h *InvitationHandler) SendEmail(c *drift.Context) {
	if _, ok := currentProfile(c, h.profileService); !ok {
		return
	}

	var req dto.SendInviteEmailRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		c.BadRequest("invalid email")
		return
	}
	if req.InviteLink == "" || req.UnitName == "" {
		c.BadRequest("inviteLink and unitName are required")
		return
	}

	simulated, err := h.emailService.SendInvite(c.Request.Context(), strings.TrimSpace(req.Email), req.UnitName, req.Role, req.InviteLink)
	if err != nil {
		respondError(c, err, "failed to send invitation email")
		return
	}

	msg := "invitation email sent"
	if simulated {
		msg = "email delivery simulated"
	}
	_ = c.JSON(http.StatusOK, dto.SendInviteEmailResponse{Success: true, Simulated: simulated, Message: msg})
}

func toInvitationResponse(inv *models.Invitation) dto.InvitationResponse {
	return dto.InvitationResponse{
		Code:      inv.Code,
		UnitID:    inv.UnitID,
		Role:      inv.Role,
		ExpiresAt: inv.ExpiresAt,
		UsedAt:    inv.UsedAt,
		CreatedAt: inv.CreatedAt,
	}
}
