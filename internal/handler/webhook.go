package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/chezmoi-app/chezmoi/internal/service"
	"github.com/chezmoi-app/chezmoi/internal/service/payment"
)

const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	bookingService *service.BookingService
}

func NewWebhookHandler(bookingService *service.BookingService) *WebhookHandler {
	return &WebhookHandler{bookingService: bookingService}
}

// Payment receives signed notifications from the payment provider.
func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		slog.Error("failed to read webhook payload", "error", err)
		writeMessage(w, http.StatusBadRequest, "Failed to read payload")
		return
	}
	defer func() {
		closeErr := r.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close request body", "error", closeErr)
		}
	}()

	err = h.bookingService.HandleWebhook(r.Context(), payload, r.Header)
	switch {
	case errors.Is(err, payment.ErrNotConfigured):
		writeMessage(w, http.StatusServiceUnavailable, "Payments are not available")
		return
	case errors.Is(err, payment.ErrInvalidWebhook):
		slog.Warn("rejected payment webhook", "error", err)
		writeMessage(w, http.StatusBadRequest, "Invalid webhook")
		return
	case err != nil:
		slog.Error("failed to handle webhook", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to process webhook")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
