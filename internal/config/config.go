package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string `env:"APP_NAME" envDefault:"ChezMoi"`
	AppEnv       string `env:"APP_ENV,required"` // 'development' or 'production'
	AppURL       string `env:"APP_URL,required"` // base URL for email links and OAuth redirects
	AppVersion   string `env:"APP_VERSION" envDefault:"1.0.0"`
	Port         string `env:"PORT" envDefault:"5000"`
	SupportEmail string `env:"SUPPORT_EMAIL" envDefault:"hello@chezmoi.example"`
	ContentPath  string `env:"CONTENT_PATH" envDefault:"content"`

	// Database (default: sqlite, set DB_DRIVER=pgx for Postgres)
	DBDriver     string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBConnection string `env:"DB_CONNECTION" envDefault:"./data/chezmoi.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_time_format=sqlite"`

	// Sessions
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`

	// Security
	JWTSecret string `env:"JWT_SECRET,required"`

	// OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	// Email
	EmailFrom        string `env:"EMAIL_FROM" envDefault:"noreply@chezmoi.example"`
	ResendAPIKey     string `env:"RESEND_API_KEY"`
	ResendAudienceID string `env:"RESEND_AUDIENCE_ID"`

	// Payment
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	PaymentCurrency     string `env:"PAYMENT_CURRENCY" envDefault:"eur"`

	// Assistant
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`

	// Observability (optional)
	SentryDSN string `env:"SENTRY_DSN"`

	// Storage (S3-compatible, optional: CV uploads are skipped without a bucket)
	S3Region        string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3Endpoint      string        `env:"S3_ENDPOINT"` // MinIO, R2, DO Spaces, ...
	S3PresignExpiry time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"1h"`
}

// Load reads .env (if present) and the environment, exiting on invalid configuration.
func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := Parse()
	if err != nil {
		slog.Error("config invalid", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// Parse builds a Config from the current environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// validateProduction ensures required services are configured for production deployments.
// Development falls back to log-only email delivery.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret == "" {
		slog.Error("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
		os.Exit(1)
	}
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// Safe to expose in ctx and client-facing responses.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		AppVersion:   c.AppVersion,
		Port:         c.Port,
		SupportEmail: c.SupportEmail,

		EmailFrom: c.EmailFrom,

		GoogleClientID: c.GoogleClientID,

		PaymentCurrency: c.PaymentCurrency,
		S3Endpoint:      c.S3Endpoint,
	}
}
