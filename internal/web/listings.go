package web

import (
	"net/http"

	"github.com/erazemk/oglasnik/internal/model"
)

type listingPage struct {
	PageData
	Category      *model.Category
	Announcements []model.Announcement
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	list, err := s.Market.PublicListing(r.Context())
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.Templates.Render(w, "index.html", &listingPage{
		PageData:      s.page(w, r, "Oglasi"),
		Announcements: list,
	})
}

// CategoryPage handles GET /categories/{id}.
func (s *Server) CategoryPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.NotFound(w, r)
		return
	}
	category, list, err := s.Market.CategoryListing(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.Templates.Render(w, "category.html", &listingPage{
		PageData:      s.page(w, r, category.Name),
		Category:      category,
		Announcements: list,
	})
}

// AnnouncementPage handles GET /announcements/{id}.
func (s *Server) AnnouncementPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.NotFound(w, r)
		return
	}
	a, err := s.Market.Announcement(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.Templates.Render(w, "announcement.html", &struct {
		PageData
		Announcement *model.Announcement
	}{
		PageData:     s.page(w, r, a.Title),
		Announcement: a,
	})
}

// MyAnnouncementsPage handles GET /my/announcements.
func (s *Server) MyAnnouncementsPage(w http.ResponseWriter, r *http.Request) {
	list, err := s.Market.OwnerListing(r.Context(), actor(r))
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.Templates.Render(w, "my_announcements.html", &listingPage{
		PageData:      s.page(w, r, "Moji oglasi"),
		Announcements: list,
	})
}

// MyReservationsPage handles GET /my/reservations.
func (s *Server) MyReservationsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reservations, err := s.Market.ReservationListing(ctx, actor(r))
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	transactions, err := s.Market.TransactionListing(ctx, actor(r))
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.Templates.Render(w, "my_reservations.html", &struct {
		PageData
		Reservations []model.Reservation
		Transactions []model.Transaction
	}{
		PageData:     s.page(w, r, "Moje rezervacije"),
		Reservations: reservations,
		Transactions: transactions,
	})
}
