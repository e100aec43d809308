package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mantty/host-api/internal/config"
	"github.com/mantty/host-api/internal/database"
	"github.com/mantty/host-api/internal/handlers"
	"github.com/mantty/host-api/internal/logger"
	authmw "github.com/mantty/host-api/internal/middleware"
	"github.com/mantty/host-api/internal/services"
	"github.com/mantty/host-api/internal/sse"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb := connectRedis(ctx, cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer)
	profileService := services.NewProfileService(db, log)
	unitService := services.NewUnitService(db)
	invitationService := services.NewInvitationService(db, cfg.JoinBaseURL)
	ticketService := services.NewTicketService(db)
	reportService := services.NewReportService(db)
	emailService := services.NewEmailService(cfg.Email, cfg.SMTP, log)
	billingService := services.NewBillingService(db, log)

	log.Info().Str("mode", emailService.Mode()).Msg("email delivery configured")

	hub := sse.NewHub(log)
	go hub.Run(ctx)

	deps := routeDeps{
		production:  cfg.IsProduction(),
		tokens:      jwtService,
		health:      db.Pool.Ping,
		profiles:    handlers.NewProfileHandler(profileService, unitService, hub),
		units:       handlers.NewUnitHandler(profileService, unitService, hub),
		invitations: handlers.NewInvitationHandler(profileService, invitationService, emailService, hub),
		tickets:     handlers.NewTicketHandler(profileService, ticketService, hub),
		reports:     handlers.NewReportHandler(profileService, reportService),
		events:      handlers.NewSSEHandler(hub, profileService, unitService),
		billing:     handlers.NewBillingHandler(billingService, cfg.StripeWebhookSecret, cfg.StripeWebhookTolerance),
	}
	if rdb != nil {
		limiter := authmw.NewRateLimiter(rdb, cfg.Redis.RedeemLimit, cfg.Redis.RedeemWindow, cfg.Redis.RedeemKeyPrefix, log)
		deps.redeemLimit = limiter.Middleware()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// connectRedis returns nil when no URL is configured or the server is
// unreachable; redemption then runs without a rate limit.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) *redis.Client {
	if cfg.URL == "" {
		log.Warn().Msg("REDIS_URL not set, redemption rate limit disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Error().Err(err).Msg("invalid REDIS_URL, redemption rate limit disabled")
		return nil
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error().Err(err).Msg("redis unreachable, redemption rate limit disabled")
		_ = rdb.Close()
		return nil
	}
	return rdb
}
