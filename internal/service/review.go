package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/chezmoi-app/chezmoi/internal/validation"
)

type ReviewInput struct {
	ChefID    int64  `json:"chefId"`
	BookingID int64  `json:"bookingId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type ReviewService struct {
	reviews  repository.ReviewRepository
	bookings repository.BookingRepository
	chefs    repository.ChefRepository
}

func NewReviewService(reviews repository.ReviewRepository, bookings repository.BookingRepository, chefs repository.ChefRepository) *ReviewService {
	return &ReviewService{reviews: reviews, bookings: bookings, chefs: chefs}
}

// Create records the customer's review of a completed booking. The chef's
// rating and review count are recomputed in the same transaction.
func (s *ReviewService) Create(ctx context.Context, customer *model.User, in ReviewInput) (*model.Review, error) {
	err := validation.ValidateRating(in.Rating, model.MinRating, model.MaxRating)
	if err != nil {
		return nil, invalidInput("%s", err.Error())
	}

	booking, err := s.bookings.ByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking: %w", ErrNotFound)
	}
	if booking.CustomerID != customer.ID {
		return nil, ErrForbidden
	}
	if booking.ChefID != in.ChefID {
		return nil, invalidInput("booking was not with this chef")
	}
	if booking.Status != model.BookingStatusCompleted {
		return nil, invalidInput("only completed bookings can be reviewed")
	}

	review, err := s.reviews.Create(ctx, &model.Review{
		CustomerID: customer.ID,
		ChefID:     booking.ChefID,
		BookingID:  &booking.ID,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
	})
	if errors.Is(err, repository.ErrConstraintViolation) {
		return nil, fmt.Errorf("review for this booking %w", ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ByChef(ctx context.Context, chefID int64) ([]model.Review, error) {
	chef, err := s.chefs.ByID(ctx, chefID)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrNotFound
	}
	return s.reviews.ByChef(ctx, chefID)
}
