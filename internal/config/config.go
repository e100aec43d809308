package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	JWTSecret string
	JWTIssuer string

	// JoinBaseURL is the frontend origin used to build invitation links.
	JoinBaseURL string

	Redis RedisConfig

	Email EmailConfig
	SMTP  SMTPConfig

	StripeWebhookSecret    string
	StripeWebhookTolerance time.Duration
}

type RedisConfig struct {
	URL             string
	RedeemLimit     int
	RedeemWindow    time.Duration
	RedeemKeyPrefix string
}

// EmailConfig configures the HTTP email provider. When APIKey is empty the
// SMTP settings are tried, then delivery is simulated.
type EmailConfig struct {
	APIKey string
	APIURL string
	From   string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redeemWindow, err := time.ParseDuration(getEnv("REDEEM_RATE_WINDOW", "1m"))
	if err != nil {
		redeemWindow = time.Minute
	}

	webhookTolerance, err := time.ParseDuration(getEnv("STRIPE_WEBHOOK_TOLERANCE", "5m"))
	if err != nil {
		webhookTolerance = 5 * time.Minute
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnvOrPanic("JWT_SECRET"),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		JoinBaseURL: getEnv("JOIN_BASE_URL", "http://localhost:5173"),

		Redis: RedisConfig{
			URL:             getEnv("REDIS_URL", ""),
			RedeemLimit:     getEnvInt("REDEEM_RATE_LIMIT", 10),
			RedeemWindow:    redeemWindow,
			RedeemKeyPrefix: getEnv("REDEEM_RATE_PREFIX", "rl:redeem"),
		},

		Email: EmailConfig{
			APIKey: getEnv("EMAIL_API_KEY", ""),
			APIURL: getEnv("EMAIL_API_URL", "https://api.resend.com"),
			From:   getEnv("EMAIL_FROM", "Mantty Host <no-reply@mantty.app>"),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},

		StripeWebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookTolerance: webhookTolerance,
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
