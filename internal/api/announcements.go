package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/model"
)

// AnnouncementsHandler serves the read, reserve and confirm endpoints.
type AnnouncementsHandler struct {
	Market *market.Service
}

type categoryListing struct {
	Category      *model.Category      `json:"category"`
	Announcements []model.Announcement `json:"announcements"`
}

// List handles GET /api/announcements.
func (h *AnnouncementsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Market.PublicListing(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

// Get handles GET /api/announcements/{id}.
func (h *AnnouncementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.Market.Announcement(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// Categories handles GET /api/categories.
func (h *AnnouncementsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	list, err := h.Market.Categories(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

// Category handles GET /api/categories/{id}/announcements.
func (h *AnnouncementsHandler) Category(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	category, list, err := h.Market.CategoryListing(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, categoryListing{Category: category, Announcements: list})
}

// Mine handles GET /api/my/announcements.
func (h *AnnouncementsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	list, err := h.Market.OwnerListing(r.Context(), actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

// Reservations handles GET /api/my/reservations.
func (h *AnnouncementsHandler) Reservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Market.ReservationListing(r.Context(), actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

// Reserve handles POST /api/announcements/{id}/reserve.
func (h *AnnouncementsHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.Market.Reserve(r.Context(), id, actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, res)
}

// Confirm handles POST /api/announcements/{id}/confirm.
func (h *AnnouncementsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tx, err := h.Market.Confirm(r.Context(), id, actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, tx)
}

// pathID parses the {id} path value, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
