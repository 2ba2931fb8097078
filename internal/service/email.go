package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client     *resend.Client
	fromEmail  string
	audienceID string
	isDev      bool
	appURL     string
	appName    string
}

func NewEmailService(apiKey, fromEmail, audienceID, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		audienceID: audienceID,
		isDev:      isDev,
		appURL:     appURL,
		appName:    appName,
	}
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	subject, body := welcomeEmailTemplate(name, s.appURL+"/chefs", s.appName)
	return s.send(ctx, "welcome", email, subject, body)
}

func (s *EmailService) SendBookingRequestEmail(ctx context.Context, chefEmail, chefName, customerName, serviceName, eventDate string, guests int) error {
	subject, body := bookingRequestTemplate(chefName, customerName, serviceName, eventDate, guests, s.appURL+"/dashboard", s.appName)
	return s.send(ctx, "booking_request", chefEmail, subject, body)
}

func (s *EmailService) SendBookingStatusEmail(ctx context.Context, customerEmail, customerName, serviceName, status string) error {
	subject, body := bookingStatusTemplate(customerName, serviceName, status, s.appURL+"/bookings", s.appName)
	return s.send(ctx, "booking_status", customerEmail, subject, body)
}

func (s *EmailService) SendNewsletterWelcome(ctx context.Context, email, unsubscribeToken string) error {
	unsubscribeURL := fmt.Sprintf("%s/api/newsletter/unsubscribe?token=%s", s.appURL, unsubscribeToken)
	subject, body := newsletterWelcomeTemplate(unsubscribeURL, s.appName)
	return s.send(ctx, "newsletter_welcome", email, subject, body)
}

func (s *EmailService) SendJobApplicationReceived(ctx context.Context, email, name string) error {
	subject, body := jobApplicationTemplate(name, s.appName)
	return s.send(ctx, "job_application", email, subject, body)
}

// SyncNewsletterContact mirrors a subscription into the Resend audience.
// Failures are logged only; the local subscription is authoritative.
func (s *EmailService) SyncNewsletterContact(ctx context.Context, email string, subscribed bool) {
	if s.isDev {
		slog.Info("newsletter audience sync (dev mode)", "email", email, "subscribed", subscribed)
		return
	}

	if s.client == nil || s.audienceID == "" {
		slog.Warn("newsletter audience sync skipped, no audience configured", "email", email)
		return
	}

	params := &resend.CreateContactRequest{
		Email:        email,
		AudienceId:   s.audienceID,
		Unsubscribed: !subscribed,
	}

	_, err := s.client.Contacts.Create(params)
	if err != nil {
		slog.Warn("newsletter audience sync failed", "error", err, "email", email)
		return
	}

	slog.Info("newsletter audience synced", "email", email, "subscribed", subscribed)
}
