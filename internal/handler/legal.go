package handler

import (
	"log/slog"
	"net/http"

	"github.com/chezmoi-app/chezmoi/internal/service"
)

type LegalHandler struct {
	legalService *service.LegalService
}

func NewLegalHandler(legalService *service.LegalService) *LegalHandler {
	handler := &LegalHandler{
		legalService: legalService,
	}

	err := handler.legalService.LoadPages()
	if err != nil {
		// Pages may be added later; requests will 404 until then
		slog.Warn("failed to load legal pages", "error", err)
	}

	return handler
}

func (h *LegalHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"pages": h.legalService.Slugs()})
}

func (h *LegalHandler) ShowPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.legalService.Page(r.PathValue("page"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
