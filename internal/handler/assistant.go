package handler

import (
	"net/http"

	"github.com/chezmoi-app/chezmoi/internal/ctxkeys"
	"github.com/chezmoi-app/chezmoi/internal/service"
)

type askRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type AssistantHandler struct {
	assistantService *service.AssistantService
}

func NewAssistantHandler(assistantService *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var in askRequest
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	answer, err := h.assistantService.Answer(r.Context(), in.Question, in.Context)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

// Help handles GET /api/assistant/help?page=/chefs
func (h *AssistantHandler) Help(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		page = "/"
	}

	help := h.assistantService.ContextualHelp(r.Context(), ctxkeys.User(r.Context()), page)
	writeJSON(w, http.StatusOK, map[string]string{"help": help})
}
