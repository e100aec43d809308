package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mantty/host-api/internal/middleware"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/rs/zerolog/log"
)

var kindStatus = map[apperror.Kind]int{
	apperror.KindQuotaExceeded:      http.StatusBadRequest,
	apperror.KindInvalidInput:       http.StatusBadRequest,
	apperror.KindPlanRestricted:     http.StatusPaymentRequired,
	apperror.KindNotAuthorized:      http.StatusForbidden,
	apperror.KindNotFound:           http.StatusNotFound,
	apperror.KindProfileNotReady:    http.StatusNotFound,
	apperror.KindInvitationNotFound: http.StatusNotFound,
	apperror.KindConflict:           http.StatusConflict,
	apperror.KindInvitationUsed:     http.StatusConflict,
	apperror.KindInvitationExpired:  http.StatusGone,
	apperror.KindRateLimited:        http.StatusTooManyRequests,
	apperror.KindRemoteFailure:      http.StatusBadGateway,
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind apperror.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse. Errors that carry no kind are
// logged and hidden behind a generic 500.
func respondError(c *drift.Context, err error, fallback string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
		_ = c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: fallback})
		return
	}
	if appErr.Kind == apperror.KindRemoteFailure {
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
	}

	msg := appErr.Message
	if msg == "" {
		msg = string(appErr.Kind)
	}
	_ = c.JSON(StatusForKind(appErr.Kind), dto.ErrorResponse{
		Error:      msg,
		Kind:       string(appErr.Kind),
		Limit:      appErr.Limit,
		Capability: appErr.Capability,
	})
}

// currentProfile resolves the authenticated caller's profile, writing the
// error response itself when that fails.
func currentProfile(c *drift.Context, profiles ProfileServiceInterface) (*models.Profile, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return nil, false
	}
	profile, err := profiles.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to load profile")
		return nil, false
	}
	return profile, true
}

func parseUUIDParam(c *drift.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.BadRequest("invalid " + name)
		return uuid.Nil, false
	}
	return id, true
}
