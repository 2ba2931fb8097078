// Package payment wraps the card payment processor used to collect booking payments.
package payment

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrProvider wraps any failure reported by the processor.
	ErrProvider = errors.New("payment provider error")

	// ErrNotConfigured is returned by callers when no provider is configured.
	ErrNotConfigured  = errors.New("payments not configured")
	ErrInvalidWebhook = errors.New("invalid webhook payload")
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Intent is a request to collect Amount (minor units) in Currency.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"clientSecret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Event is a verified webhook notification. Intent is set for payment intent events.
type Event struct {
	ID     string
	Type   string
	Intent *Intent
}

type Provider interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*Intent, error)
	// ParseWebhook verifies the signature and decodes the event.
	ParseWebhook(payload []byte, headers http.Header) (*Event, error)
	Name() string
}
