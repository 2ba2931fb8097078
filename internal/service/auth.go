package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/chezmoi-app/chezmoi/internal/service/auth"
	"github.com/chezmoi-app/chezmoi/internal/validation"
)

var ErrInvalidCredentials = auth.ErrInvalidCredentials

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type AuthService struct {
	users        repository.UserRepository
	strategies   *auth.Registry
	sessions     *SessionService
	emailService *EmailService
}

func NewAuthService(users repository.UserRepository, strategies *auth.Registry, sessions *SessionService, emailService *EmailService) *AuthService {
	return &AuthService{
		users:        users,
		strategies:   strategies,
		sessions:     sessions,
		emailService: emailService,
	}
}

// Register creates a local account. The username is derived from the email when omitted.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := auth.NormalizeEmail(in.Email)
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, invalidInput("%s", err.Error())
	}

	err = validation.ValidatePassword(in.Password)
	if err != nil {
		return nil, invalidInput("%s", err.Error())
	}

	fullName := strings.TrimSpace(in.FullName)
	err = validation.ValidateName(fullName)
	if err != nil {
		return nil, invalidInput("%s", err.Error())
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		username, err = auth.UniqueUsername(ctx, s.users, email)
		if err != nil {
			return nil, err
		}
	}
	err = validation.ValidateUsername(username)
	if err != nil {
		return nil, invalidInput("%s", err.Error())
	}

	existing, err := s.users.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("email %w", ErrDuplicate)
	}

	existing, err = s.users.ByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("username %w", ErrDuplicate)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: &hash,
		FullName:     fullName,
		Role:         model.RoleUser,
	})
	if errors.Is(err, repository.ErrConstraintViolation) {
		// Concurrent registration with the same email or username
		return nil, fmt.Errorf("account %w", ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID)

	err = s.emailService.SendWelcomeEmail(ctx, user.Email, user.FullName)
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	return user, nil
}

// Authenticate resolves credentials with the named strategy.
func (s *AuthService) Authenticate(ctx context.Context, strategyName string, creds auth.Credentials) (*model.User, error) {
	strategy, err := s.strategies.Get(strategyName)
	if err != nil {
		return nil, err
	}
	return strategy.Resolve(ctx, creds)
}

// Login authenticates and opens a session.
func (s *AuthService) Login(ctx context.Context, strategyName string, creds auth.Credentials) (*model.User, *model.Session, error) {
	user, err := s.Authenticate(ctx, strategyName, creds)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessions.Create(ctx, user, strategyName)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in", "user_id", user.ID, "provider", strategyName)
	return user, session, nil
}

// StartSession opens a session for a user who was just registered.
func (s *AuthService) StartSession(ctx context.Context, user *model.User) (*model.Session, error) {
	return s.sessions.Create(ctx, user, model.ProviderLocal)
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

func (s *AuthService) HasStrategy(name string) bool {
	return s.strategies.Has(name)
}
