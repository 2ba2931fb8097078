package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         int64     `db:"id" json:"id"`
	CustomerID int64     `db:"customer_id" json:"customerId"`
	ChefID     int64     `db:"chef_id" json:"chefId"`
	BookingID  *int64    `db:"booking_id" json:"bookingId"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
