package model

import "time"

type NewsletterSubscription struct {
	ID             int64      `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	IsActive       bool       `db:"is_active" json:"isActive"`
	SubscribedAt   time.Time  `db:"subscribed_at" json:"subscribedAt"`
	UnsubscribedAt *time.Time `db:"unsubscribed_at" json:"unsubscribedAt"`
}
