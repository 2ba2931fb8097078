package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/chezmoi-app/chezmoi/internal/service/auth"
	"github.com/chezmoi-app/chezmoi/internal/validation"
	"github.com/golang-jwt/jwt/v5"
)

const (
	unsubscribePurpose = "newsletter_unsubscribe"
	unsubscribeExpiry  = 365 * 24 * time.Hour
)

type NewsletterService struct {
	subscriptions repository.NewsletterRepository
	emailService  *EmailService
	jwtSecret     string
	now           func() time.Time
}

func NewNewsletterService(subscriptions repository.NewsletterRepository, emailService *EmailService, jwtSecret string) *NewsletterService {
	return &NewsletterService{
		subscriptions: subscriptions,
		emailService:  emailService,
		jwtSecret:     jwtSecret,
		now:           time.Now,
	}
}

// Subscribe activates email, re-activating a previous subscription if one exists.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	email = auth.NormalizeEmail(email)
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, invalidInput("%s", err.Error())
	}

	sub, err := s.subscriptions.Subscribe(ctx, email)
	if err != nil {
		return nil, err
	}

	s.emailService.SyncNewsletterContact(ctx, email, true)

	token, err := s.UnsubscribeToken(email)
	if err != nil {
		slog.Error("failed to sign unsubscribe token", "error", err)
		return sub, nil
	}
	err = s.emailService.SendNewsletterWelcome(ctx, email, token)
	if err != nil {
		slog.Error("failed to send newsletter welcome email", "email", email, "error", err)
	}

	return sub, nil
}

// UnsubscribeToken signs a one-year token that unsubscribes email without a login.
func (s *NewsletterService) UnsubscribeToken(email string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"email":   email,
		"purpose": unsubscribePurpose,
		"exp":     now.Add(unsubscribeExpiry).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *NewsletterService) Unsubscribe(ctx context.Context, tokenString string) (*model.NewsletterSubscription, error) {
	email, err := s.verifyUnsubscribeToken(tokenString)
	if err != nil {
		return nil, invalidInput("invalid unsubscribe link")
	}

	sub, err := s.subscriptions.Unsubscribe(ctx, email)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}

	s.emailService.SyncNewsletterContact(ctx, email, false)
	slog.Info("newsletter unsubscribed", "email", email)
	return sub, nil
}

func (s *NewsletterService) verifyUnsubscribeToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if purpose, _ := claims["purpose"].(string); purpose != unsubscribePurpose {
		return "", fmt.Errorf("token purpose mismatch")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", fmt.Errorf("token has no email")
	}
	return email, nil
}
