package main

import (
	"context"
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/mantty/host-api/internal/handlers"
	authmw "github.com/mantty/host-api/internal/middleware"
)

type routeDeps struct {
	production bool
	tokens     authmw.TokenValidator
	health     func(ctx context.Context) error
	// redeemLimit guards invitation redemption; nil disables it.
	redeemLimit drift.HandlerFunc

	profiles    *handlers.ProfileHandler
	units       *handlers.UnitHandler
	invitations *handlers.InvitationHandler
	tickets     *handlers.TicketHandler
	reports     *handlers.ReportHandler
	events      *handlers.SSEHandler
	billing     *handlers.BillingHandler
}

func newRouter(d routeDeps) http.Handler {
	app := drift.New()

	if d.production {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	app.Post("/billing/stripe/webhook", d.billing.StripeWebhook)

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		if err := d.health(c.Request.Context()); err != nil {
			_ = c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	api.Get("/invitations/:code", d.invitations.Preview)

	protected := api.Group("")
	protected.Use(authmw.Auth(d.tokens))

	// Static segments under /units must not sit beside the :unitId wildcard.
	protected.Get("/profiles/me", d.profiles.GetMe)
	protected.Patch("/profiles/me", d.profiles.UpdateMe)
	protected.Patch("/profiles/me/active-unit", d.profiles.SwitchActiveUnit)
	protected.Get("/profiles/me/unit-count", d.units.Count)

	protected.Get("/units", d.units.List)

	protected.Post("/functions/create-unit", d.units.Create)
	protected.Post("/functions/send-invite-email", d.invitations.SendEmail)

	protected.Post("/units/:unitId/invitations", d.invitations.Create)
	protected.Get("/units/:unitId/invitations", d.invitations.List)
	protected.Delete("/units/:unitId/invitations/:code", d.invitations.Revoke)

	protected.Get("/units/:unitId/tickets", d.tickets.List)
	protected.Post("/units/:unitId/tickets", d.tickets.Create)
	protected.Patch("/units/:unitId/tickets/:ticketId", d.tickets.Update)

	protected.Get("/units/:unitId/reports/summary", d.reports.Summary)

	protected.Get("/units/:unitId/events", d.events.Connect)
	protected.Post("/sse/:clientId/subscribe/:unitId", d.events.Subscribe)
	protected.Post("/sse/:clientId/unsubscribe/:unitId", d.events.Unsubscribe)

	protected.Patch("/admin/profiles/:id/plan", d.profiles.UpdatePlan)

	redeem := api.Group("")
	redeem.Use(authmw.Auth(d.tokens))
	if d.redeemLimit != nil {
		redeem.Use(d.redeemLimit)
	}
	redeem.Post("/invitations/:code/redeem", d.invitations.Redeem)

	return app
}
