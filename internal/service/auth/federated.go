package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
)

const createAttempts = 3

// FederatedStrategy resolves a provider identity to a user: first by the linked
// provider subject, then by email (linking the account), otherwise by creating one.
type FederatedStrategy struct {
	provider string
	users    repository.UserRepository
}

func NewFederatedStrategy(provider string, users repository.UserRepository) *FederatedStrategy {
	return &FederatedStrategy{provider: provider, users: users}
}

func (s *FederatedStrategy) Name() string {
	return s.provider
}

func (s *FederatedStrategy) Resolve(ctx context.Context, creds Credentials) (*model.User, error) {
	fed, ok := creds.(FederatedCredentials)
	if !ok || fed.Provider != s.provider || fed.Subject == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.ByGoogleID(ctx, fed.Subject)
	if err != nil {
		return nil, fmt.Errorf("lookup federated user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	email := NormalizeEmail(fed.Email)
	if email == "" {
		// Provider withheld the address
		email = fed.Subject + "@gmail.com"
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		user, err = s.users.ByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("lookup user by email: %w", err)
		}
		if user != nil {
			return s.link(ctx, user, fed.Subject)
		}

		user, err = s.create(ctx, email, fed)
		if err == nil {
			slog.Info("federated user created", "provider", s.provider, "user_id", user.ID)
			return user, nil
		}
		if !errors.Is(err, repository.ErrConstraintViolation) {
			return nil, err
		}

		// Lost a race on email, subject or username; re-read and retry
		user, err = s.users.ByGoogleID(ctx, fed.Subject)
		if err != nil {
			return nil, fmt.Errorf("lookup federated user: %w", err)
		}
		if user != nil {
			return user, nil
		}
	}

	return nil, fmt.Errorf("create federated user: %w", repository.ErrConstraintViolation)
}

func (s *FederatedStrategy) link(ctx context.Context, user *model.User, subject string) (*model.User, error) {
	if user.GoogleID != nil {
		if *user.GoogleID == subject {
			return user, nil
		}
		// Account is already bound to a different identity
		return nil, ErrInvalidCredentials
	}

	linked, err := s.users.Update(ctx, user.ID, model.UserUpdate{GoogleID: &subject})
	if err != nil {
		return nil, fmt.Errorf("link federated identity: %w", err)
	}
	if linked == nil {
		return nil, ErrInvalidCredentials
	}

	slog.Info("federated identity linked", "provider", s.provider, "user_id", linked.ID)
	return linked, nil
}

func (s *FederatedStrategy) create(ctx context.Context, email string, fed FederatedCredentials) (*model.User, error) {
	username, err := UniqueUsername(ctx, s.users, email)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:      email,
		Username:   username,
		FullName:   fed.DisplayName,
		GoogleID:   &fed.Subject,
		Role:       model.RoleUser,
		IsVerified: true,
	}
	if fed.PictureURL != "" {
		user.ProfileImageURL = &fed.PictureURL
	}

	return s.users.Create(ctx, user)
}
