package handlers

import (
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mantty/host-api/pkg/dto"
)

type ReportHandler struct {
	profileService ProfileServiceInterface
	reportService  ReportServiceInterface
}

func NewReportHandler(profileService ProfileServiceInterface, reportService ReportServiceInterface) *ReportHandler {
	return &ReportHandler{profileService: profileService, reportService: reportService}
}

func (h *ReportHandler) Summary(c *drift.Context) {
	profile, ok := currentProfile(c, h.profileService)
	if !ok {
		return
	}
	unitID, ok := parseUUIDParam(c, "unitId")
	if !ok {
		return
	}

	summary, err := h.reportService.Summary(c.Request.Context(), profile, unitID)
	if err != nil {
		respondError(c, err, "failed to build report")
		return
	}

	_ = c.JSON(http.StatusOK, dto.ReportSummaryResponse{
		UnitID:   summary.UnitID,
		Total:    summary.Total,
		ByStatus: summary.ByStatus,
	})
}
