package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/ctxkeys"
	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/service"
)

type approvalRequest struct {
	Approved bool `json:"approved"`
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

type serviceUpdateRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Price           *int64  `json:"price"`
	DurationMinutes *int    `json:"durationMinutes"`
}

type ChefHandler struct {
	chefService   *service.ChefService
	reviewService *service.ReviewService
}

func NewChefHandler(chefService *service.ChefService, reviewService *service.ReviewService) *ChefHandler {
	return &ChefHandler{chefService: chefService, reviewService: reviewService}
}

func (h *ChefHandler) Featured(w http.ResponseWriter, r *http.Request) {
	chefs, err := h.chefService.Featured(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chefs)
}

// Search handles GET /api/chefs?location=&specialties=a,b&maxPrice=&minRating=
func (h *ChefHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseChefFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	chefs, err := h.chefService.Search(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chefs)
}

func parseChefFilter(r *http.Request) (model.ChefFilter, error) {
	var filter model.ChefFilter
	q := r.URL.Query()

	if location := strings.TrimSpace(q.Get("location")); location != "" {
		filter.Location = &location
	}

	for _, raw := range q["specialties"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Specialties = append(filter.Specialties, s)
			}
		}
	}

	if raw := q.Get("maxPrice"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, invalidQuery("maxPrice")
		}
		filter.MaxPrice = &price
	}

	if raw := q.Get("minRating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, invalidQuery("minRating")
		}
		filter.MinRating = &rating
	}

	return filter, nil
}

func (h *ChefHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	chef, err := h.chefService.Detail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chef)
}

// Become handles POST /api/chefs: the current user opens a chef profile.
func (h *ChefHandler) Become(w http.ResponseWriter, r *http.Request) {
	var in service.ChefProfileInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	chef, err := h.chefService.Become(r.Context(), ctxkeys.User(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, chef)
}

func (h *ChefHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in service.ChefProfileUpdate
	err = decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	chef, err := h.chefService.UpdateProfile(r.Context(), ctxkeys.User(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chef)
}

func (h *ChefHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in approvalRequest
	err = decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	chef, err := h.chefService.Approve(r.Context(), ctxkeys.User(r.Context()), id, in.Approved)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chef)
}

func (h *ChefHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in availabilityRequest
	err = decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	chef, err := h.chefService.SetAvailability(r.Context(), ctxkeys.User(r.Context()), id, in.Available)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chef)
}

func (h *ChefHandler) Services(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	services, err := h.chefService.Services(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *ChefHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	reviews, err := h.reviewService.ByChef(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ChefHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var in service.ServiceInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	svc, err := h.chefService.CreateService(r.Context(), ctxkeys.User(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (h *ChefHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in serviceUpdateRequest
	err = decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	svc, err := h.chefService.UpdateService(r.Context(), ctxkeys.User(r.Context()), id, model.ServiceUpdate{
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		DurationMinutes: in.DurationMinutes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *ChefHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.chefService.DeleteService(r.Context(), ctxkeys.User(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
