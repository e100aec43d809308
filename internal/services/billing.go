package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mantty/host-api/internal/database"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
)

const (
	BillingStatusApplied   = "ok"
	BillingStatusDuplicate = "duplicate"
	BillingStatusIgnored   = "ignored"
)

// BillingService turns verified Stripe events into plan changes. Events are
// recorded by id first so replays are no-ops.
type BillingService struct {
	db  *database.DB
	log zerolog.Logger
}

func NewBillingService(db *database.DB, log zerolog.Logger) *BillingService {
	return &BillingService{db: db, log: log}
}

type planChange struct {
	profileID     uuid.UUID
	plan          entitlements.Plan
	extraCapacity int
}

func (s *BillingService) Apply(ctx context.Context, evt stripe.Event) (string, error) {
	evtType := string(evt.Type)
	log := s.log.With().Str("provider_event_id", evt.ID).Str("event_type", evtType).Logger()

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO billing_events (provider_event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (provider_event_id) DO NOTHING
	`, evt.ID, evtType)
	if err != nil {
		return "", fmt.Errorf("failed to record billing event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		log.Info().Msg("billing event duplicate ignored")
		return BillingStatusDuplicate, nil
	}

	change, ok := s.planChangeFor(evt, log)
	if ok {
		tag, err := tx.Exec(ctx, `
			UPDATE profiles SET plan = $2, extra_capacity = $3, updated_at = NOW()
			WHERE id = $1
		`, change.profileID, string(change.plan), change.extraCapacity)
		if err != nil {
			return "", fmt.Errorf("failed to apply plan change: %w", err)
		}
		if tag.RowsAffected() == 0 {
			log.Warn().Str("profile_id", change.profileID.String()).Msg("billing event for unknown profile")
			ok = false
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	if !ok {
		return BillingStatusIgnored, nil
	}

	log.Info().
		Str("profile_id", change.profileID.String()).
		Str("plan", string(change.plan)).
		Int("extra_capacity", change.extraCapacity).
		Msg("billing plan change applied")
	return BillingStatusApplied, nil
}

func (s *BillingService) planChangeFor(evt stripe.Event, log zerolog.Logger) (planChange, bool) {
	switch evt.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			log.Error().Err(err).Msg("invalid checkout session payload")
			return planChange{}, false
		}
		return changeFromMetadata(session.Metadata, log)

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			log.Error().Err(err).Msg("invalid subscription payload")
			return planChange{}, false
		}
		if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
			return planChange{}, false
		}
		return changeFromMetadata(sub.Metadata, log)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			log.Error().Err(err).Msg("invalid subscription payload")
			return planChange{}, false
		}
		id, err := uuid.Parse(strings.TrimSpace(sub.Metadata["profile_id"]))
		if err != nil {
			log.Warn().Msg("subscription without profile_id metadata")
			return planChange{}, false
		}
		return planChange{profileID: id, plan: entitlements.PlanBasic}, true
	}
	return planChange{}, false
}

func changeFromMetadata(md map[string]string, log zerolog.Logger) (planChange, bool) {
	id, err := uuid.Parse(strings.TrimSpace(md["profile_id"]))
	if err != nil {
		log.Warn().Msg("missing profile_id metadata")
		return planChange{}, false
	}
	plan, known := entitlements.ParsePlan(strings.ToLower(strings.TrimSpace(md["plan"])))
	if !known {
		log.Warn().Str("plan", md["plan"]).Msg("unknown plan in metadata")
		return planChange{}, false
	}

	extra := 0
	if raw := strings.TrimSpace(md["extra_capacity"]); raw != "" {
		extra, err = strconv.Atoi(raw)
		if err != nil || extra < 0 {
			log.Warn().Str("extra_capacity", raw).Msg("invalid extra_capacity metadata")
			return planChange{}, false
		}
	}
	return planChange{profileID: id, plan: plan, extraCapacity: extra}, true
}
