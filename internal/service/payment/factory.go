package payment

import (
	"log/slog"

	"github.com/chezmoi-app/chezmoi/internal/config"
)

// NewProvider returns the configured provider, or nil when payments are disabled.
func NewProvider(cfg *config.Config) Provider {
	if cfg.StripeSecretKey == "" {
		slog.Info("payments disabled, STRIPE_SECRET_KEY not set")
		return nil
	}

	return NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
}
