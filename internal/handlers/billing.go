package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79/webhook"
)

const maxWebhookBody = 1 << 20

// BillingHandler receives Stripe webhooks. The signature is the only
// authentication, so the route sits outside the JWT group.
type BillingHandler struct {
	billingService BillingServiceInterface
	secret         string
	tolerance      time.Duration
}

func NewBillingHandler(billingService BillingServiceInterface, secret string, tolerance time.Duration) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		secret:         secret,
		tolerance:      tolerance,
	}
}

func (h *BillingHandler) StripeWebhook(c *drift.Context) {
	if strings.TrimSpace(h.secret) == "" {
		_ = c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "stripe webhook not configured"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		c.BadRequest("missing Stripe-Signature header")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.BadRequest("failed to read request body")
		return
	}

	evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, h.secret, h.tolerance)
	if err != nil {
		log.Warn().Err(err).Msg("stripe webhook rejected")
		c.BadRequest("invalid signature")
		return
	}

	status, err := h.billingService.Apply(c.Request.Context(), evt)
	if err != nil {
		respondError(c, err, "failed to apply billing event")
		return
	}
	_ = c.JSON(http.StatusOK, map[string]string{"status": status})
}
