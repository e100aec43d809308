package handlers

import (
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/internal/services"
	"github.com/mantty/host-api/pkg/dto"
)

type TicketHandler struct {
	profileService ProfileServiceInterface
	ticketService  TicketServiceInterface
	hub            HubInterface
}

func NewTicketHandler(profileService ProfileServiceInterface, ticketService TicketServiceInterface, hub HubInterface) *TicketHandler {
	return &TicketHandler{
		profileService: profileService,
		ticketService:  ticketService,
		hub:            hub,
	}
}

func (h *TicketHandler) List(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}

	tickets, err := h.ticketService.List(c.Request.Context(), profile, unitID)
	if err != nil {
		respondError(c, err, "failed to list tickets")
		return
	}

	response := make([]dto.TicketResponse, len(tickets))
	for i := range tickets {
		response[i] = toTicketResponse(&tickets[i])
	}
	_ = c.JSON(http.StatusOK, response)
}

func (h *TicketHandler) Create(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}

	var req dto.CreateTicketRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), profile, unitID, services.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Source:      req.Source,
	})
	if err != nil {
		respondError(c, err, "failed to create ticket")
		return
	}

	resp := toTicketResponse(ticket)
	h.hub.Publish(unitID, dto.EventTicketCreated, ticket.ID, ticket.Version, resp)
	_ = c.JSON(http.StatusCreated, resp)
}

func (h *TicketHandler) Update(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}
	ticketID, ok := parseUUIDParam(c, "ticketId")
	if !ok {
		return
	}

	var req dto.UpdateTicketRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ticket, err := h.ticketService.Update(c.Request.Context(), profile, unitID, ticketID, services.UpdateTicketInput{
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Version:    req.Version,
	})
	if err != nil {
		respondError(c, err, "failed to update ticket")
		return
	}

	resp := toTicketResponse(ticket)
	h.hub.Publish(unitID, dto.EventTicketUpdated, ticket.ID, ticket.Version, resp)
	_ = c.JSON(http.StatusOK, resp)
}

func toTicketResponse(t *models.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          t.ID,
		UnitID:      t.UnitID,
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		Title:       t.Title,
		Description: t.Description,
		Source:      t.Source,
		Status:      t.Status,
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
