package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/jmoiron/sqlx"
)

var bookingColumnList = []string{
	"id", "customer_id", "chef_id", "service_id", "event_date", "guest_count", "total_amount",
	"status", "payment_status", "payment_intent_id", "address", "notes", "created_at", "updated_at",
}

var bookingColumns = strings.Join(bookingColumnList, ", ")

var bookingDetailsSelect = `SELECT ` + qualify("b", bookingColumnList) + `,
	` + aliasColumns("cu", "customer", userColumnList) + `,
	` + aliasColumns("c", "chef", chefColumnList) + `,
	` + aliasColumns("chu", "chef_user", userColumnList) + `,
	` + aliasColumns("s", "service", serviceColumnList) + `
	FROM bookings b
	JOIN users cu ON cu.id = b.customer_id
	JOIN chefs c ON c.id = b.chef_id
	JOIN users chu ON chu.id = c.user_id
	JOIN services s ON s.id = b.service_id`

type bookingDetailsRow struct {
	model.Booking
	Customer model.User    `db:"customer"`
	Chef     model.Chef    `db:"chef"`
	ChefUser model.User    `db:"chef_user"`
	Service  model.Service `db:"service"`
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	ByID(ctx context.Context, id int64) (*model.Booking, error)
	// WithDetails joins the customer, chef (with its user and services) and the booked service.
	WithDetails(ctx context.Context, id int64) (*model.BookingWithDetails, error)
	ByCustomer(ctx context.Context, customerID int64) ([]model.BookingWithDetails, error)
	ByChef(ctx context.Context, chefID int64) ([]model.BookingWithDetails, error)
	ByPaymentIntentID(ctx context.Context, intentID string) (*model.Booking, error)
	Update(ctx context.Context, id int64, patch model.BookingUpdate) (*model.Booking, error)
}

type bookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	now := time.Now().UTC()
	if booking.Status == "" {
		booking.Status = model.BookingStatusPending
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = model.PaymentStatusUnpaid
	}

	query := `INSERT INTO bookings (customer_id, chef_id, service_id, event_date, guest_count, total_amount,
			status, payment_status, payment_intent_id, address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + bookingColumns

	created := &model.Booking{}
	err := r.db.GetContext(ctx, created, query,
		booking.CustomerID, booking.ChefID, booking.ServiceID, booking.EventDate.UTC(), booking.GuestCount,
		booking.TotalAmount, booking.Status, booking.PaymentStatus, booking.PaymentIntentID,
		booking.Address, booking.Notes, now, now)
	if err != nil {
		return nil, storeError("create booking", err)
	}

	return created, nil
}

func (r *bookingRepository) ByID(ctx context.Context, id int64) (*model.Booking, error) {
	return r.getOne(ctx, "booking by id", `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *bookingRepository) ByPaymentIntentID(ctx context.Context, intentID string) (*model.Booking, error) {
	return r.getOne(ctx, "booking by payment intent", `SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id = $1`, intentID)
}

func (r *bookingRepository) getOne(ctx context.Context, op, query string, arg any) (*model.Booking, error) {
	booking := &model.Booking{}
	err := r.db.GetContext(ctx, booking, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(op, err)
	}

	return booking, nil
}

func (r *bookingRepository) WithDetails(ctx context.Context, id int64) (*model.BookingWithDetails, error) {
	rows := []bookingDetailsRow{}
	err := r.db.SelectContext(ctx, &rows, bookingDetailsSelect+` WHERE b.id = $1`, id)
	if err != nil {
		return nil, storeError("booking with details", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	details, err := r.assemble(ctx, rows)
	if err != nil {
		return nil, storeError("booking with details", err)
	}

	return &details[0], nil
}

func (r *bookingRepository) ByCustomer(ctx context.Context, customerID int64) ([]model.BookingWithDetails, error) {
	return r.list(ctx, "bookings by customer", `WHERE b.customer_id = $1`, customerID)
}

func (r *bookingRepository) ByChef(ctx context.Context, chefID int64) ([]model.BookingWithDetails, error) {
	return r.list(ctx, "bookings by chef", `WHERE b.chef_id = $1`, chefID)
}

func (r *bookingRepository) list(ctx context.Context, op, where string, arg any) ([]model.BookingWithDetails, error) {
	rows := []bookingDetailsRow{}
	err := r.db.SelectContext(ctx, &rows, bookingDetailsSelect+"\n\t"+where+"\n\tORDER BY b.event_date DESC, b.id DESC", arg)
	if err != nil {
		return nil, storeError(op, err)
	}

	details, err := r.assemble(ctx, rows)
	if err != nil {
		return nil, storeError(op, err)
	}

	return details, nil
}

// assemble loads chef specialties and services for the joined rows.
func (r *bookingRepository) assemble(ctx context.Context, rows []bookingDetailsRow) ([]model.BookingWithDetails, error) {
	details := make([]model.BookingWithDetails, 0, len(rows))
	if len(rows) == 0 {
		return details, nil
	}

	chefRows := make([]chefUserRow, len(rows))
	for i, row := range rows {
		chefRows[i] = chefUserRow{Chef: row.Chef, User: row.ChefUser}
	}

	chefs, err := (&chefRepository{db: r.db}).assemble(ctx, chefRows)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		details = append(details, model.BookingWithDetails{
			Booking:  row.Booking,
			Customer: row.Customer,
			Chef:     chefs[i],
			Service:  row.Service,
		})
	}

	return details, nil
}

func (r *bookingRepository) Update(ctx context.Context, id int64, patch model.BookingUpdate) (*model.Booking, error) {
	set := &setClause{}
	if patch.EventDate != nil {
		set.add("event_date", patch.EventDate.UTC())
	}
	setIf(set, "guest_count", patch.GuestCount)
	setIf(set, "total_amount", patch.TotalAmount)
	setIf(set, "status", patch.Status)
	setIf(set, "payment_status", patch.PaymentStatus)
	setIf(set, "payment_intent_id", patch.PaymentIntentID)
	setIf(set, "address", patch.Address)
	setIf(set, "notes", patch.Notes)
	if set.empty() {
		return r.ByID(ctx, id)
	}
	set.add("updated_at", time.Now().UTC())

	query := r.db.Rebind(`UPDATE bookings SET ` + set.String() + ` WHERE id = ? RETURNING ` + bookingColumns)
	args := append(set.args, id)

	booking := &model.Booking{}
	err := r.db.GetContext(ctx, booking, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("update booking", err)
	}

	return booking, nil
}
