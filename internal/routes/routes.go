package routes

import (
	"net/http"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/app"
	"github.com/chezmoi-app/chezmoi/internal/handler"
	"github.com/chezmoi-app/chezmoi/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB, app.Cfg)
	auth := handler.NewAuthHandler(app.AuthService, app.SessionService, app.Cfg)
	chefs := handler.NewChefHandler(app.ChefService, app.ReviewService)
	bookings := handler.NewBookingHandler(app.BookingService)
	reviews := handler.NewReviewHandler(app.ReviewService)
	messages := handler.NewMessageHandler(app.MessageService)
	newsletter := handler.NewNewsletterHandler(app.NewsletterService)
	intake := handler.NewIntakeHandler(app.IntakeService)
	assistant := handler.NewAssistantHandler(app.AssistantService)
	legal := handler.NewLegalHandler(app.LegalService)
	webhooks := handler.NewWebhookHandler(app.BookingService)
	realtime := handler.NewRealtimeHandler(app.Hub)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /api/health", health.Health)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("GET /api/auth/me", auth.Me)
	mux.HandleFunc("GET /api/auth/csrf", auth.CSRFToken)
	mux.HandleFunc("POST /api/auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/auth/google", rateLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /api/auth/google/callback", rateLimiter(auth.GoogleCallback))

	// Chefs
	mux.HandleFunc("GET /api/chefs", chefs.Search)
	mux.HandleFunc("GET /api/chefs/featured", chefs.Featured)
	mux.HandleFunc("GET /api/chefs/{id}", chefs.Detail)
	mux.HandleFunc("GET /api/chefs/{id}/services", chefs.Services)
	mux.HandleFunc("GET /api/chefs/{id}/reviews", chefs.Reviews)

	// Content
	mux.HandleFunc("GET /api/legal", legal.List)
	mux.HandleFunc("GET /api/legal/{page}", legal.ShowPage)

	// Newsletter
	mux.HandleFunc("POST /api/newsletter/subscribe", newsletter.Subscribe)
	mux.HandleFunc("GET /api/newsletter/unsubscribe", newsletter.Unsubscribe)

	// Intake forms
	mux.HandleFunc("POST /api/job-applications", rateLimiter(intake.JobApplication))
	mux.HandleFunc("POST /api/chef-quiz", intake.ChefQuiz)

	// Assistant
	assistantLimiter := middleware.RateLimit(20, time.Minute)
	mux.HandleFunc("POST /api/assistant/ask", assistantLimiter(assistant.Ask))
	mux.HandleFunc("GET /api/assistant/help", assistantLimiter(assistant.Help))

	// Realtime
	mux.HandleFunc("GET /ws", realtime.Connect)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Chef profile & services
	mux.HandleFunc("POST /api/chefs", middleware.RequireAuth(chefs.Become))
	mux.HandleFunc("PATCH /api/chefs/{id}", middleware.RequireAuth(chefs.UpdateProfile))
	mux.HandleFunc("PUT /api/chefs/{id}/availability", middleware.RequireAuth(chefs.SetAvailability))
	mux.HandleFunc("POST /api/services", middleware.RequireAuth(chefs.CreateService))
	mux.HandleFunc("PATCH /api/services/{id}", middleware.RequireAuth(chefs.UpdateService))
	mux.HandleFunc("DELETE /api/services/{id}", middleware.RequireAuth(chefs.DeleteService))

	// Bookings
	mux.HandleFunc("POST /api/bookings", middleware.RequireAuth(bookings.Create))
	mux.HandleFunc("GET /api/bookings", middleware.RequireAuth(bookings.List))
	mux.HandleFunc("GET /api/bookings/{id}", middleware.RequireAuth(bookings.Detail))
	mux.HandleFunc("PUT /api/bookings/{id}/status", middleware.RequireAuth(bookings.UpdateStatus))
	mux.HandleFunc("POST /api/bookings/{id}/cancel", middleware.RequireAuth(bookings.Cancel))
	mux.HandleFunc("POST /api/bookings/{id}/payment-intent", middleware.RequireAuth(bookings.CreatePaymentIntent))

	// Reviews
	mux.HandleFunc("POST /api/reviews", middleware.RequireAuth(reviews.Create))

	// Messages
	mux.HandleFunc("POST /api/messages", middleware.RequireAuth(messages.Send))
	mux.HandleFunc("GET /api/messages/unread-count", middleware.RequireAuth(messages.UnreadCount))
	mux.HandleFunc("GET /api/messages/with/{userId}", middleware.RequireAuth(messages.Conversation))
	mux.HandleFunc("POST /api/messages/{id}/read", middleware.RequireAuth(messages.MarkRead))

	// ============================================================================
	// ADMIN ROUTES
	// ============================================================================

	mux.HandleFunc("PUT /api/admin/chefs/{id}/approval", middleware.RequireAdmin(chefs.Approve))

	// ============================================================================
	// WEBHOOKS
	// ============================================================================

	mux.HandleFunc("POST /webhooks/payment", webhooks.Payment)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (CSRF reads APP_ENV from it)
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.SessionService),
	)

	return handler
}
