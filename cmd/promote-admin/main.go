package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mantty/host-api/internal/config"
	"github.com/mantty/host-api/internal/database"
	"github.com/mantty/host-api/internal/logger"
	"github.com/mantty/host-api/internal/services"
	"github.com/mantty/host-api/pkg/apperror"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: promote-admin <email>")
		os.Exit(1)
	}

	email := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	profiles := services.NewProfileService(db, log)
	if err := profiles.PromoteToSuperAdmin(ctx, email); err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			log.Fatal().Str("email", email).Msg("no profile found with that email")
		}
		log.Fatal().Err(err).Msg("failed to promote profile")
	}

	fmt.Printf("Successfully promoted %s to superadmin\n", email)
}
