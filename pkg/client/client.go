// Package client is the Go SDK for the Mantty Host API. Client implements
// session.Backend, so the session flows run unchanged against a live server.
package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/mantty/host-api/pkg/session"
)

const apiPrefix = "/api/v1"

type Client struct {
	http   *resty.Client
	stream *resty.Client
}

var _ session.Backend = (*Client)(nil)

// New returns a client for the API at baseURL authenticating with token.
// Mutations are never retried; a failed call surfaces once.
func New(baseURL, token string) *Client {
	base := strings.TrimRight(baseURL, "/")
	return &Client{
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(30*time.Second).
			SetRetryCount(0).
			SetAuthToken(token).
			SetHeader("Accept", "application/json"),
		stream: resty.New().
			SetBaseURL(base).
			SetRetryCount(0).
			SetAuthToken(token).
			SetHeader("Accept", "text/event-stream"),
	}
}

func (c *Client) request(ctx context.Context, result any) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&dto.ErrorResponse{})
	if result != nil {
		req.SetResult(result)
	}
	return req
}

// check normalizes a resty outcome into an *apperror.Error.
func check(resp *resty.Response, err error) error {
	if err != nil {
		return apperror.RemoteFailure("request failed", err)
	}
	if !resp.IsError() {
		return nil
	}

	body, _ := resp.Error().(*dto.ErrorResponse)
	if body == nil {
		body = &dto.ErrorResponse{}
	}
	kind := apperror.Kind(body.Kind)
	if kind == "" {
		kind = kindForStatus(resp.StatusCode())
	}
	msg := body.Error
	if msg == "" {
		msg = resp.Status()
	}
	return &apperror.Error{Kind: kind, Message: msg, Limit: body.Limit, Capability: body.Capability}
}

func kindForStatus(status int) apperror.Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperror.KindNotAuthorized
	case http.StatusNotFound:
		return apperror.KindNotFound
	case http.StatusConflict:
		return apperror.KindConflict
	case http.StatusTooManyRequests:
		return apperror.KindRateLimited
	case http.StatusBadRequest:
		return apperror.KindInvalidInput
	default:
		return apperror.KindRemoteFailure
	}
}

func (c *Client) GetProfile(ctx context.Context) (*dto.ProfileResponse, error) {
	var out dto.ProfileResponse
	if err := check(c.request(ctx, &out).Get(apiPrefix + "/profiles/me")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	var out dto.ProfileResponse
	if err := check(c.request(ctx, &out).SetBody(req).Patch(apiPrefix + "/profiles/me")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CountUnits(ctx context.Context) (*dto.UnitCountResponse, error) {
	var out dto.UnitCountResponse
	if err := check(c.request(ctx, &out).Get(apiPrefix + "/profiles/me/unit-count")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUnits(ctx context.Context) ([]dto.UnitResponse, error) {
	var out []dto.UnitResponse
	if err := check(c.request(ctx, &out).Get(apiPrefix + "/units")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUnit(ctx context.Context, req dto.CreateUnitRequest, idempotencyKey string) (*dto.CreateUnitResponse, error) {
	var out dto.CreateUnitResponse
	r := c.request(ctx, &out).SetBody(req)
	if idempotencyKey != "" {
		r.SetHeader("Idempotency-Key", idempotencyKey)
	}
	if err := check(r.Post(apiPrefix + "/functions/create-unit")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetActiveUnit(ctx context.Context, unitID uuid.UUID) (*dto.ProfileResponse, error) {
	var out dto.ProfileResponse
	r := c.request(ctx, &out).SetBody(dto.SwitchUnitRequest{UnitID: unitID})
	if err := check(r.Patch(apiPrefix + "/profiles/me/active-unit")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateInvitation(ctx context.Context, unitID uuid.UUID, role entitlements.Role) (*dto.InvitationResponse, error) {
	var out dto.InvitationResponse
	r := c.request(ctx, &out).SetBody(dto.CreateInvitationRequest{Role: string(role)})
	if err := check(r.Post(apiPrefix + "/units/" + unitID.String() + "/invitations")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PreviewInvitation(ctx context.Context, code string) (*dto.InvitationPreviewResponse, error) {
	var out dto.InvitationPreviewResponse
	if err := check(c.request(ctx, &out).Get(apiPrefix + "/invitations/" + url.PathEscape(code))); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RedeemInvitation(ctx context.Context, code string) (*dto.RedeemInvitationResponse, error) {
	var out dto.RedeemInvitationResponse
	if err := check(c.request(ctx, &out).Post(apiPrefix + "/invitations/" + url.PathEscape(code) + "/redeem")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendInviteEmail(ctx context.Context, req dto.SendInviteEmailRequest) (*dto.SendInviteEmailResponse, error) {
	var out dto.SendInviteEmailResponse
	if err := check(c.request(ctx, &out).SetBody(req).Post(apiPrefix + "/functions/send-invite-email")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTickets(ctx context.Context, unitID uuid.UUID) ([]dto.TicketResponse, error) {
	var out []dto.TicketResponse
	if err := check(c.request(ctx, &out).Get(apiPrefix + "/units/" + unitID.String() + "/tickets")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTicket(ctx context.Context, unitID uuid.UUID, req dto.CreateTicketRequest) (*dto.TicketResponse, error) {
	var out dto.TicketResponse
	if err := check(c.request(ctx, &out).SetBody(req).Post(apiPrefix + "/units/" + unitID.String() + "/tickets")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTicket(ctx context.Context, unitID, ticketID uuid.UUID, req dto.UpdateTicketRequest) (*dto.TicketResponse, error) {
	var out dto.TicketResponse
	path := apiPrefix + "/units/" + unitID.String() + "/tickets/" + ticketID.String()
	if err := check(c.request(ctx, &out).SetBody(req).Patch(path)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReportSummary(ctx context.Context, unitID uuid.UUID) (*dto.ReportSummaryResponse, error) {
	var out dto.ReportSummaryResponse
	if err := check(c.request(ctx, &out).Get(apiPrefix + "/units/" + unitID.String() + "/reports/summary")); err != nil {
		return nil, err
	}
	return &out, nil
}
