// Package apperror defines the closed set of failure kinds shared by the API
// and its Go client. Every fallible operation reports one of these kinds.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindPlanRestricted     Kind = "plan_restricted"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindNotAuthorized      Kind = "not_authorized"
	KindRemoteFailure      Kind = "remote_failure"
	KindProfileNotReady    Kind = "profile_not_ready"
	KindInvalidInput       Kind = "invalid_input"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindInvitationNotFound Kind = "invitation_not_found"
	KindInvitationExpired  Kind = "invitation_expired"
	KindInvitationUsed     Kind = "invitation_used"
	KindRateLimited        Kind = "rate_limited"
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrPlanRestricted     = &Error{Kind: KindPlanRestricted}
	ErrQuotaExceeded      = &Error{Kind: KindQuotaExceeded}
	ErrNotAuthorized      = &Error{Kind: KindNotAuthorized}
	ErrRemoteFailure      = &Error{Kind: KindRemoteFailure}
	ErrProfileNotReady    = &Error{Kind: KindProfileNotReady}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrInvitationNotFound = &Error{Kind: KindInvitationNotFound}
	ErrInvitationExpired  = &Error{Kind: KindInvitationExpired}
	ErrInvitationUsed     = &Error{Kind: KindInvitationUsed}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
)

type Error struct {
	Kind    Kind
	Message string
	// Limit is the total allowed units, set for quota errors.
	Limit int
	// Capability names the missing plan feature, set for plan restrictions.
	Capability string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func PlanRestricted(capability, message string) *Error {
	return &Error{Kind: KindPlanRestricted, Capability: capability, Message: message}
}

func QuotaExceeded(limit int) *Error {
	return &Error{
		Kind:    KindQuotaExceeded,
		Limit:   limit,
		Message: fmt.Sprintf("unit limit reached (%d allowed)", limit),
	}
}

func NotAuthorized(message string) *Error {
	return &Error{Kind: KindNotAuthorized, Message: message}
}

func RemoteFailure(message string, err error) *Error {
	return &Error{Kind: KindRemoteFailure, Message: message, Err: err}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind carried by err, or KindRemoteFailure for errors
// that did not originate here.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindRemoteFailure
}

// From converts any error into an *Error, wrapping foreign errors as remote failures.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return RemoteFailure(err.Error(), nil)
}
