package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleChef  = "chef"
	RoleAdmin = "admin"
)

type User struct {
	ID              int64     `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	Username        string    `db:"username" json:"username"`
	PasswordHash    *string   `db:"password_hash" json:"-"` // Nullable for federated-only users
	FullName        string    `db:"full_name" json:"fullName"`
	ProfileImageURL *string   `db:"profile_image_url" json:"profileImageUrl"`
	GoogleID        *string   `db:"google_id" json:"-"`
	Role            string    `db:"role" json:"role"`
	IsVerified      bool      `db:"is_verified" json:"isVerified"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsFederated() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Email           *string
	Username        *string
	PasswordHash    *string
	FullName        *string
	ProfileImageURL *string
	GoogleID        *string
	Role            *string
	IsVerified      *bool
}
