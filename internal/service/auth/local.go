package auth

import (
	"context"
	"fmt"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// LocalStrategy verifies an email and password against the stored bcrypt hash.
type LocalStrategy struct {
	users repository.UserRepository
}

func NewLocalStrategy(users repository.UserRepository) *LocalStrategy {
	return &LocalStrategy{users: users}
}

func (s *LocalStrategy) Name() string {
	return model.ProviderLocal
}

func (s *LocalStrategy) Resolve(ctx context.Context, creds Credentials) (*model.User, error) {
	local, ok := creds.(LocalCredentials)
	if !ok || local.Email == "" || local.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.ByEmail(ctx, NormalizeEmail(local.Email))
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Federated-only accounts have no password to compare against
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	err = ComparePassword(local.Password, *user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
