package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/chezmoi-app/chezmoi/internal/service/payment"
)

const (
	maxGuests = 100

	metadataBookingID = "booking_id"
)

type BookingInput struct {
	ChefID     int64     `json:"chefId"`
	ServiceID  int64     `json:"serviceId"`
	EventDate  time.Time `json:"eventDate"`
	GuestCount int       `json:"guestCount"`
	Address    string    `json:"address"`
	Notes      string    `json:"notes"`
}

// BookingList splits a user's bookings by the side they are on.
type BookingList struct {
	AsCustomer []model.BookingWithDetails `json:"asCustomer"`
	AsChef     []model.BookingWithDetails `json:"asChef"`
}

type BookingService struct {
	bookings     repository.BookingRepository
	chefs        repository.ChefRepository
	services     repository.ServiceRepository
	users        repository.UserRepository
	emailService *EmailService
	payments     payment.Provider // nil when payments are disabled
	currency     string
	now          func() time.Time
}

func NewBookingService(
	bookings repository.BookingRepository,
	chefs repository.ChefRepository,
	services repository.ServiceRepository,
	users repository.UserRepository,
	emailService *EmailService,
	payments payment.Provider,
	currency string,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		chefs:        chefs,
		services:     services,
		users:        users,
		emailService: emailService,
		payments:     payments,
		currency:     currency,
		now:          time.Now,
	}
}

// Create books a chef's service for customer. The total is the service price times guests.
func (s *BookingService) Create(ctx context.Context, customer *model.User, in BookingInput) (*model.Booking, error) {
	if in.GuestCount < 1 || in.GuestCount > maxGuests {
		return nil, invalidInput("guest count must be between 1 and %d", maxGuests)
	}
	if in.EventDate.IsZero() || !in.EventDate.After(s.now()) {
		return nil, invalidInput("event date must be in the future")
	}

	chef, err := s.chefs.ByID(ctx, in.ChefID)
	if err != nil {
		return nil, err
	}
	if chef == nil || !chef.IsApproved {
		return nil, fmt.Errorf("chef: %w", ErrNotFound)
	}
	if !chef.IsAvailable {
		return nil, invalidInput("chef is not accepting bookings")
	}
	if chef.UserID == customer.ID {
		return nil, invalidInput("chefs cannot book themselves")
	}

	svc, err := s.services.ByID(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc == nil || svc.ChefID != chef.ID {
		return nil, invalidInput("service does not belong to this chef")
	}

	booking, err := s.bookings.Create(ctx, &model.Booking{
		CustomerID:  customer.ID,
		ChefID:      chef.ID,
		ServiceID:   svc.ID,
		EventDate:   in.EventDate.UTC(),
		GuestCount:  in.GuestCount,
		TotalAmount: svc.Price * int64(in.GuestCount),
		Address:     strings.TrimSpace(in.Address),
		Notes:       strings.TrimSpace(in.Notes),
	})
	if errors.Is(err, repository.ErrConstraintViolation) {
		return nil, invalidInput("booking references missing records")
	}
	if err != nil {
		return nil, err
	}

	slog.Info("booking created", "booking_id", booking.ID, "chef_id", chef.ID, "customer_id", customer.ID)
	s.notifyChef(ctx, chef, customer, svc, booking)
	return booking, nil
}

func (s *BookingService) notifyChef(ctx context.Context, chef *model.Chef, customer *model.User, svc *model.Service, booking *model.Booking) {
	chefUser, err := s.users.ByID(ctx, chef.UserID)
	if err != nil || chefUser == nil {
		slog.Warn("booking request email skipped, chef user not loaded", "chef_id", chef.ID, "error", err)
		return
	}

	err = s.emailService.SendBookingRequestEmail(ctx, chefUser.Email, chefUser.FullName, customer.FullName,
		svc.Name, booking.EventDate.Format("Monday 2 January 2006, 15:04"), booking.GuestCount)
	if err != nil {
		slog.Error("failed to send booking request email", "booking_id", booking.ID, "error", err)
	}
}

// Detail returns a booking visible to its customer, its chef or an admin.
func (s *BookingService) Detail(ctx context.Context, user *model.User, id int64) (*model.BookingWithDetails, error) {
	booking, err := s.bookings.WithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	if !user.IsAdmin() && booking.CustomerID != user.ID && booking.Chef.UserID != user.ID {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) List(ctx context.Context, user *model.User) (*BookingList, error) {
	asCustomer, err := s.bookings.ByCustomer(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	list := &BookingList{AsCustomer: asCustomer, AsChef: []model.BookingWithDetails{}}

	chef, err := s.chefs.ByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if chef != nil {
		list.AsChef, err = s.bookings.ByChef(ctx, chef.ID)
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

// UpdateStatus moves a booking along its state machine on behalf of the chef (or an admin).
func (s *BookingService) UpdateStatus(ctx context.Context, user *model.User, id int64, status string) (*model.Booking, error) {
	booking, err := s.Detail(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && booking.Chef.UserID != user.ID {
		return nil, ErrForbidden
	}

	return s.transition(ctx, booking, status)
}

// Cancel lets the customer withdraw a pending or confirmed booking.
func (s *BookingService) Cancel(ctx context.Context, user *model.User, id int64) (*model.Booking, error) {
	booking, err := s.Detail(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != user.ID {
		return nil, ErrForbidden
	}

	return s.transition(ctx, booking, model.BookingStatusCancelled)
}

func (s *BookingService) transition(ctx context.Context, booking *model.BookingWithDetails, status string) (*model.Booking, error) {
	if !model.CanTransition(booking.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, booking.Status, status)
	}

	updated, err := s.bookings.Update(ctx, booking.ID, model.BookingUpdate{Status: &status})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	slog.Info("booking status changed", "booking_id", booking.ID, "from", booking.Status, "to", status)

	err = s.emailService.SendBookingStatusEmail(ctx, booking.Customer.Email, booking.Customer.FullName, booking.Service.Name, status)
	if err != nil {
		slog.Error("failed to send booking status email", "booking_id", booking.ID, "error", err)
	}
	return updated, nil
}

// CreatePaymentIntent starts (or resumes) collecting payment for the customer's booking.
func (s *BookingService) CreatePaymentIntent(ctx context.Context, user *model.User, id int64) (*payment.Intent, error) {
	if s.payments == nil {
		return nil, payment.ErrNotConfigured
	}

	booking, err := s.bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	if booking.CustomerID != user.ID {
		return nil, ErrForbidden
	}
	if booking.PaymentStatus == model.PaymentStatusPaid {
		return nil, invalidInput("booking is already paid")
	}
	if booking.Status == model.BookingStatusCancelled {
		return nil, invalidInput("booking is cancelled")
	}

	if booking.PaymentIntentID != nil {
		intent, err := s.payments.RetrievePaymentIntent(ctx, *booking.PaymentIntentID)
		if err == nil && intent.Amount == booking.TotalAmount {
			return intent, nil
		}
		if err != nil {
			slog.Warn("failed to reuse payment intent, creating a new one", "booking_id", booking.ID, "error", err)
		}
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, booking.TotalAmount, s.currency, map[string]string{
		metadataBookingID: strconv.FormatInt(booking.ID, 10),
	})
	if err != nil {
		return nil, err
	}

	_, err = s.bookings.Update(ctx, booking.ID, model.BookingUpdate{PaymentIntentID: &intent.ID})
	if err != nil {
		return nil, err
	}

	slog.Info("payment intent created", "booking_id", booking.ID, "intent_id", intent.ID, "provider", s.payments.Name())
	return intent, nil
}

// HandleWebhook verifies a provider notification and applies it.
func (s *BookingService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if s.payments == nil {
		return payment.ErrNotConfigured
	}

	event, err := s.payments.ParseWebhook(payload, headers)
	if err != nil {
		return err
	}
	return s.HandlePaymentEvent(ctx, event)
}

// HandlePaymentEvent marks a booking paid and confirmed on success, or failed.
// Unrelated events and unknown intents are ignored.
func (s *BookingService) HandlePaymentEvent(ctx context.Context, event *payment.Event) error {
	if event.Intent == nil {
		slog.Debug("ignoring payment event", "event_id", event.ID, "type", event.Type)
		return nil
	}

	booking, err := s.bookingForIntent(ctx, event.Intent)
	if err != nil {
		return err
	}
	if booking == nil {
		slog.Warn("payment event for unknown booking", "event_id", event.ID, "intent_id", event.Intent.ID)
		return nil
	}

	var patch model.BookingUpdate
	switch event.Type {
	case payment.EventPaymentSucceeded:
		paid := model.PaymentStatusPaid
		patch.PaymentStatus = &paid
		if model.CanTransition(booking.Status, model.BookingStatusConfirmed) {
			confirmed := model.BookingStatusConfirmed
			patch.Status = &confirmed
		}
	case payment.EventPaymentFailed:
		failed := model.PaymentStatusFailed
		patch.PaymentStatus = &failed
	default:
		return nil
	}
	if booking.PaymentIntentID == nil || *booking.PaymentIntentID != event.Intent.ID {
		patch.PaymentIntentID = &event.Intent.ID
	}

	_, err = s.bookings.Update(ctx, booking.ID, patch)
	if err != nil {
		return err
	}

	slog.Info("payment event applied", "booking_id", booking.ID, "type", event.Type, "intent_id", event.Intent.ID)
	return nil
}

func (s *BookingService) bookingForIntent(ctx context.Context, intent *payment.Intent) (*model.Booking, error) {
	booking, err := s.bookings.ByPaymentIntentID(ctx, intent.ID)
	if err != nil || booking != nil {
		return booking, err
	}

	raw, ok := intent.Metadata[metadataBookingID]
	if !ok {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, nil
	}
	return s.bookings.ByID(ctx, id)
}
