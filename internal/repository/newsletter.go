package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/jmoiron/sqlx"
)

const newsletterColumns = "id, email, is_active, subscribed_at, unsubscribed_at"

type NewsletterRepository interface {
	// Subscribe inserts the address or reactivates an inactive subscription.
	Subscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error)
	// Unsubscribe deactivates the subscription; (nil, nil) when the address is unknown.
	Unsubscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error)
	ByEmail(ctx context.Context, email string) (*model.NewsletterSubscription, error)
}

type newsletterRepository struct {
	db *sqlx.DB
}

func NewNewsletterRepository(db *sqlx.DB) NewsletterRepository {
	return &newsletterRepository{db: db}
}

func (r *newsletterRepository) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	query := `INSERT INTO newsletter_subscriptions (email, is_active, subscribed_at, unsubscribed_at)
		VALUES ($1, $2, $3, NULL)
		ON CONFLICT (email) DO UPDATE SET is_active = excluded.is_active, subscribed_at = excluded.subscribed_at, unsubscribed_at = NULL
		RETURNING ` + newsletterColumns

	sub := &model.NewsletterSubscription{}
	err := r.db.GetContext(ctx, sub, query, email, true, time.Now().UTC())
	if err != nil {
		return nil, storeError("subscribe newsletter", err)
	}

	return sub, nil
}

func (r *newsletterRepository) Unsubscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	query := `UPDATE newsletter_subscriptions SET is_active = $1, unsubscribed_at = $2
		WHERE email = $3
		RETURNING ` + newsletterColumns

	sub := &model.NewsletterSubscription{}
	err := r.db.GetContext(ctx, sub, query, false, time.Now().UTC(), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("unsubscribe newsletter", err)
	}

	return sub, nil
}

func (r *newsletterRepository) ByEmail(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	sub := &model.NewsletterSubscription{}
	err := r.db.GetContext(ctx, sub, `SELECT `+newsletterColumns+` FROM newsletter_subscriptions WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("newsletter by email", err)
	}

	return sub, nil
}
