package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := QuotaExceeded(5)

	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.False(t, errors.Is(err, ErrPlanRestricted))
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create unit: %w", NotAuthorized("not your unit"))

	assert.True(t, errors.Is(err, ErrNotAuthorized))
	assert.Equal(t, KindNotAuthorized, KindOf(err))
}

func TestQuotaExceeded_CarriesLimit(t *testing.T) {
	err := QuotaExceeded(7)

	assert.Equal(t, 7, err.Limit)
	assert.Contains(t, err.Error(), "7")
}

func TestPlanRestricted_CarriesCapability(t *testing.T) {
	err := PlanRestricted("reports", "reports require plus or max")

	assert.Equal(t, "reports", err.Capability)
	assert.Equal(t, "reports require plus or max", err.Error())
}

func TestRemoteFailure_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := RemoteFailure("request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "request failed: connection refused", err.Error())
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, KindRemoteFailure, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	original := New(KindInvitationExpired, "expired")
	assert.Same(t, original, From(fmt.Errorf("wrap: %w", original)))

	converted := From(errors.New("timeout"))
	require.NotNil(t, converted)
	assert.Equal(t, KindRemoteFailure, converted.Kind)
	assert.Equal(t, "timeout", converted.Message)
}

func TestError_EmptyMessageFallsBackToKind(t *testing.T) {
	assert.Equal(t, "profile_not_ready", ErrProfileNotReady.Error())
}
