package model

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"
)

type Booking struct {
	ID              int64     `db:"id" json:"id"`
	CustomerID      int64     `db:"customer_id" json:"customerId"`
	ChefID          int64     `db:"chef_id" json:"chefId"`
	ServiceID       int64     `db:"service_id" json:"serviceId"`
	EventDate       time.Time `db:"event_date" json:"eventDate"`
	GuestCount      int       `db:"guest_count" json:"guestCount"`
	TotalAmount     int64     `db:"total_amount" json:"totalAmount"` // cents
	Status          string    `db:"status" json:"status"`
	PaymentStatus   string    `db:"payment_status" json:"paymentStatus"`
	PaymentIntentID *string   `db:"payment_intent_id" json:"paymentIntentId"`
	Address         string    `db:"address" json:"address"`
	Notes           string    `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

type BookingUpdate struct {
	EventDate       *time.Time
	GuestCount      *int
	TotalAmount     *int64
	Status          *string
	PaymentStatus   *string
	PaymentIntentID *string
	Address         *string
	Notes           *string
}

type BookingWithDetails struct {
	Booking
	Customer User         `json:"customer"`
	Chef     ChefWithUser `json:"chef"`
	Service  Service      `json:"service"`
}

var bookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
