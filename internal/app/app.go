package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/config"
	"github.com/chezmoi-app/chezmoi/internal/db"
	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/realtime"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/chezmoi-app/chezmoi/internal/service"
	"github.com/chezmoi-app/chezmoi/internal/service/auth"
	"github.com/chezmoi-app/chezmoi/internal/service/payment"
	"github.com/chezmoi-app/chezmoi/internal/storage"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	Store             *repository.Storage
	Hub               *realtime.Hub
	EmailService      *service.EmailService
	SessionService    *service.SessionService
	AuthService       *service.AuthService
	ChefService       *service.ChefService
	BookingService    *service.BookingService
	ReviewService     *service.ReviewService
	MessageService    *service.MessageService
	NewsletterService *service.NewsletterService
	IntakeService     *service.IntakeService
	AssistantService  *service.AssistantService
	LegalService      *service.LegalService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := repository.NewStorage(database)

	// Optional collaborators: nil when unconfigured
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	paymentProvider := payment.NewProvider(cfg)
	completer := service.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	hub := realtime.NewHub(strings.TrimRight(cfg.AppURL, "/"))

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.ResendAudienceID,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	sessionService := service.NewSessionService(store.Sessions, store.Users, cfg.SessionTTL, cfg.IsProduction())

	strategies := []auth.Strategy{auth.NewLocalStrategy(store.Users)}
	if cfg.GoogleEnabled() {
		strategies = append(strategies, auth.NewFederatedStrategy(model.ProviderGoogle, store.Users))
	}
	authService := service.NewAuthService(store.Users, auth.NewRegistry(strategies...), sessionService, emailService)

	chefService := service.NewChefService(store.Chefs, store.Services, store.Users)
	bookingService := service.NewBookingService(
		store.Bookings,
		store.Chefs,
		store.Services,
		store.Users,
		emailService,
		paymentProvider,
		cfg.PaymentCurrency,
	)
	reviewService := service.NewReviewService(store.Reviews, store.Bookings, store.Chefs)
	messageService := service.NewMessageService(store.Messages, store.Users, store.Bookings, store.Chefs, hub)
	newsletterService := service.NewNewsletterService(store.Newsletter, emailService, cfg.JWTSecret)
	intakeService := service.NewIntakeService(store.JobApplications, store.ChefQuizzes, fileStorage, emailService)
	assistantService := service.NewAssistantService(completer)
	legalService := service.NewLegalService(cfg.ContentPath, cfg.IsDevelopment())

	return &App{
		Cfg:               cfg,
		DB:                database,
		Store:             store,
		Hub:               hub,
		EmailService:      emailService,
		SessionService:    sessionService,
		AuthService:       authService,
		ChefService:       chefService,
		BookingService:    bookingService,
		ReviewService:     reviewService,
		MessageService:    messageService,
		NewsletterService: newsletterService,
		IntakeService:     intakeService,
		AssistantService:  assistantService,
		LegalService:      legalService,
	}, nil
}

func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
