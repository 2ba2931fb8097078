package handler

import (
	"net/http"

	"github.com/chezmoi-app/chezmoi/internal/ctxkeys"
	"github.com/chezmoi-app/chezmoi/internal/realtime"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Connect upgrades to a websocket. Anonymous peers are accepted with user id 0.
func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if user := ctxkeys.User(r.Context()); user != nil {
		userID = user.ID
	}
	h.hub.ServeWS(w, r, userID)
}
