package model

import (
	"time"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type Session struct {
	ID        int64     `db:"id"`
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	Data      string    `db:"data"` // JSON-encoded SessionIdentity
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// SessionIdentity is the serialized payload stored with a session.
type SessionIdentity struct {
	UserID   int64  `json:"userId"`
	Provider string `json:"provider"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
