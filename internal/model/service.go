package model

import "time"

// Service is an offering sold by a chef.
type Service struct {
	ID              int64     `db:"id" json:"id"`
	ChefID          int64     `db:"chef_id" json:"chefId"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	Price           int64     `db:"price" json:"price"` // cents per guest
	DurationMinutes int       `db:"duration_minutes" json:"durationMinutes"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

type ServiceUpdate struct {
	Name            *string
	Description     *string
	Price           *int64
	DurationMinutes *int
}
