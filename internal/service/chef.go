package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
)

type ChefProfileInput struct {
	Bio             string   `json:"bio"`
	Location        string   `json:"location"`
	PricePerPerson  int64    `json:"pricePerPerson"` // cents
	YearsExperience int      `json:"yearsExperience"`
	Specialties     []string `json:"specialties"`
}

type ChefProfileUpdate struct {
	Bio             *string   `json:"bio"`
	Location        *string   `json:"location"`
	PricePerPerson  *int64    `json:"pricePerPerson"`
	YearsExperience *int      `json:"yearsExperience"`
	IsAvailable     *bool     `json:"isAvailable"`
	Specialties     *[]string `json:"specialties"`
}

type ServiceInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           int64  `json:"price"` // cents per guest
	DurationMinutes int    `json:"durationMinutes"`
}

type ChefService struct {
	chefs    repository.ChefRepository
	services repository.ServiceRepository
	users    repository.UserRepository
}

func NewChefService(chefs repository.ChefRepository, services repository.ServiceRepository, users repository.UserRepository) *ChefService {
	return &ChefService{chefs: chefs, services: services, users: users}
}

func (s *ChefService) Featured(ctx context.Context) ([]model.ChefWithUser, error) {
	return s.chefs.Featured(ctx, model.FeaturedChefLimit)
}

// Search lists approved chefs matching filter.
func (s *ChefService) Search(ctx context.Context, filter model.ChefFilter) ([]model.ChefWithUser, error) {
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return nil, invalidInput("maxPrice must not be negative")
	}
	if filter.MinRating != nil && (*filter.MinRating < 0 || *filter.MinRating > model.MaxRating) {
		return nil, invalidInput("minRating must be between 0 and %d", model.MaxRating)
	}

	filter.ApprovedOnly = true
	return s.chefs.Search(ctx, filter)
}

func (s *ChefService) Detail(ctx context.Context, id int64) (*model.ChefWithUser, error) {
	chef, err := s.chefs.WithUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrNotFound
	}
	return chef, nil
}

// ByUser returns the chef profile owned by userID, or nil.
func (s *ChefService) ByUser(ctx context.Context, userID int64) (*model.Chef, error) {
	return s.chefs.ByUserID(ctx, userID)
}

// Become creates the user's chef profile, pending approval, and promotes the user to the chef role.
func (s *ChefService) Become(ctx context.Context, user *model.User, in ChefProfileInput) (*model.ChefWithUser, error) {
	err := validateChefProfile(in.PricePerPerson, in.YearsExperience)
	if err != nil {
		return nil, err
	}

	existing, err := s.chefs.ByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("chef profile %w", ErrDuplicate)
	}

	chef, err := s.chefs.Create(ctx, &model.Chef{
		UserID:          user.ID,
		Bio:             strings.TrimSpace(in.Bio),
		Location:        strings.TrimSpace(in.Location),
		PricePerPerson:  in.PricePerPerson,
		YearsExperience: in.YearsExperience,
		IsApproved:      false,
		IsAvailable:     true,
		Specialties:     in.Specialties,
	})
	if errors.Is(err, repository.ErrConstraintViolation) {
		return nil, fmt.Errorf("chef profile %w", ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}

	if user.Role == model.RoleUser {
		role := model.RoleChef
		_, err = s.users.Update(ctx, user.ID, model.UserUpdate{Role: &role})
		if err != nil {
			return nil, err
		}
	}

	slog.Info("chef profile created", "chef_id", chef.ID, "user_id", user.ID)
	return s.Detail(ctx, chef.ID)
}

// UpdateProfile lets the owning chef (or an admin) edit the profile.
func (s *ChefService) UpdateProfile(ctx context.Context, actor *model.User, chefID int64, in ChefProfileUpdate) (*model.ChefWithUser, error) {
	_, err := s.owned(ctx, actor, chefID)
	if err != nil {
		return nil, err
	}

	if in.PricePerPerson != nil && *in.PricePerPerson < 0 {
		return nil, invalidInput("pricePerPerson must not be negative")
	}
	if in.YearsExperience != nil && *in.YearsExperience < 0 {
		return nil, invalidInput("yearsExperience must not be negative")
	}

	_, err = s.chefs.Update(ctx, chefID, model.ChefUpdate{
		Bio:             in.Bio,
		Location:        in.Location,
		PricePerPerson:  in.PricePerPerson,
		YearsExperience: in.YearsExperience,
		IsAvailable:     in.IsAvailable,
	})
	if err != nil {
		return nil, err
	}

	if in.Specialties != nil {
		err = s.chefs.SetSpecialties(ctx, chefID, *in.Specialties)
		if err != nil {
			return nil, err
		}
	}

	return s.Detail(ctx, chefID)
}

// Approve sets the approval flag. Admin only.
func (s *ChefService) Approve(ctx context.Context, actor *model.User, chefID int64, approved bool) (*model.Chef, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	chef, err := s.chefs.Update(ctx, chefID, model.ChefUpdate{IsApproved: &approved})
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrNotFound
	}

	slog.Info("chef approval changed", "chef_id", chefID, "approved", approved, "admin_id", actor.ID)
	return chef, nil
}

func (s *ChefService) SetAvailability(ctx context.Context, actor *model.User, chefID int64, available bool) (*model.Chef, error) {
	_, err := s.owned(ctx, actor, chefID)
	if err != nil {
		return nil, err
	}
	return s.chefs.Update(ctx, chefID, model.ChefUpdate{IsAvailable: &available})
}

func (s *ChefService) Services(ctx context.Context, chefID int64) ([]model.Service, error) {
	chef, err := s.chefs.ByID(ctx, chefID)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrNotFound
	}
	return s.services.ByChef(ctx, chefID)
}

// CreateService adds an offering to the actor's own chef profile.
func (s *ChefService) CreateService(ctx context.Context, actor *model.User, in ServiceInput) (*model.Service, error) {
	chef, err := s.chefs.ByUserID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidInput("name is required")
	}
	if in.Price < 0 || in.DurationMinutes < 0 {
		return nil, invalidInput("price and duration must not be negative")
	}

	return s.services.Create(ctx, &model.Service{
		ChefID:          chef.ID,
		Name:            name,
		Description:     strings.TrimSpace(in.Description),
		Price:           in.Price,
		DurationMinutes: in.DurationMinutes,
	})
}

func (s *ChefService) UpdateService(ctx context.Context, actor *model.User, serviceID int64, patch model.ServiceUpdate) (*model.Service, error) {
	_, err := s.ownedService(ctx, actor, serviceID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalidInput("name must not be empty")
	}
	if (patch.Price != nil && *patch.Price < 0) || (patch.DurationMinutes != nil && *patch.DurationMinutes < 0) {
		return nil, invalidInput("price and duration must not be negative")
	}

	return s.services.Update(ctx, serviceID, patch)
}

func (s *ChefService) DeleteService(ctx context.Context, actor *model.User, serviceID int64) error {
	_, err := s.ownedService(ctx, actor, serviceID)
	if err != nil {
		return err
	}

	deleted, err := s.services.Delete(ctx, serviceID)
	if errors.Is(err, repository.ErrConstraintViolation) {
		return invalidInput("service has bookings and cannot be deleted")
	}
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	return nil
}

func (s *ChefService) owned(ctx context.Context, actor *model.User, chefID int64) (*model.Chef, error) {
	chef, err := s.chefs.ByID(ctx, chefID)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrNotFound
	}
	if chef.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return chef, nil
}

func (s *ChefService) ownedService(ctx context.Context, actor *model.User, serviceID int64) (*model.Service, error) {
	service, err := s.services.ByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, ErrNotFound
	}

	_, err = s.owned(ctx, actor, service.ChefID)
	if err != nil {
		return nil, err
	}
	return service, nil
}

func validateChefProfile(price int64, years int) error {
	if price < 0 {
		return invalidInput("pricePerPerson must not be negative")
	}
	if years < 0 {
		return invalidInput("yearsExperience must not be negative")
	}
	return nil
}
