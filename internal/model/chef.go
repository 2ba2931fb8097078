package model

import "time"

// FeaturedChefLimit caps the featured listing on the home page.
const FeaturedChefLimit = 6

type Chef struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"userId"`
	Bio             string    `db:"bio" json:"bio"`
	Location        string    `db:"location" json:"location"`
	PricePerPerson  int64     `db:"price_per_person" json:"pricePerPerson"` // cents
	Rating          float64   `db:"rating" json:"rating"`
	ReviewCount     int       `db:"review_count" json:"reviewCount"`
	YearsExperience int       `db:"years_experience" json:"yearsExperience"`
	IsApproved      bool      `db:"is_approved" json:"isApproved"`
	IsAvailable     bool      `db:"is_available" json:"isAvailable"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`

	// Loaded from chef_specialties
	Specialties []string `db:"-" json:"specialties"`
}

type ChefUpdate struct {
	Bio             *string
	Location        *string
	PricePerPerson  *int64
	YearsExperience *int
	IsApproved      *bool
	IsAvailable     *bool
}

// ChefWithUser is the denormalized chef view. Services and Reviews are never nil.
type ChefWithUser struct {
	Chef
	User     User      `json:"user"`
	Services []Service `json:"services"`
	Reviews  []Review  `json:"reviews"`
}

// ChefFilter narrows a chef search. Unset fields are ignored; set fields are ANDed.
type ChefFilter struct {
	Location     *string
	Specialties  []string // matches chefs having any of these
	MaxPrice     *int64   // cents, compared against price_per_person
	MinRating    *float64
	ApprovedOnly bool
}
