package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/chezmoi-app/chezmoi/internal/service"
)

type subscribeRequest struct {
	Email string `json:"email"`
}

type NewsletterHandler struct {
	newsletterService *service.NewsletterService
}

func NewNewsletterHandler(newsletterService *service.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletterService: newsletterService}
}

func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in subscribeRequest
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	_, err = h.newsletterService.Subscribe(r.Context(), in.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Subscribed to the newsletter")
}

// Unsubscribe handles the signed link from newsletter emails.
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	_, err := h.newsletterService.Unsubscribe(r.Context(), r.URL.Query().Get("token"))
	if errors.Is(err, service.ErrNotFound) {
		// Same answer as success so links cannot probe for addresses
		slog.Warn("unsubscribe for unknown address")
		err = nil
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "You have been unsubscribed")
}
