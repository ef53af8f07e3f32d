package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/oglasnik/internal/market"
)

// page builds the common page data: the acting user, the pending flash
// message and the category menu.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	categories, err := s.Market.Categories(r.Context())
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}
	return PageData{
		Title:      title,
		User:       actor(r),
		Flash:      popFlash(w, r),
		Categories: categories,
	}
}

type errorPage struct {
	PageData
	Status int
}

// fail turns a service error into a response. Conflicts redirect to back
// with a warning; validation errors are handled by the caller.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case errors.Is(err, market.ErrUnauthorized):
		redirectToLogin(w, r)
	case errors.Is(err, market.ErrNotFound):
		s.errorPage(w, r, http.StatusNotFound, "Stran ne obstaja.")
	case errors.Is(err, market.ErrForbidden):
		s.errorPage(w, r, http.StatusForbidden, "Za to dejanje nimate dovoljenja.")
	case errors.Is(err, market.ErrConflict):
		setFlash(w, flashWarning, "Oglas ni več na voljo za to dejanje.")
		http.Redirect(w, r, back, http.StatusSeeOther)
	default:
		var verr *market.ValidationError
		if errors.As(err, &verr) {
			setFlash(w, flashError, verr.First())
			http.Redirect(w, r, back, http.StatusSeeOther)
			return
		}
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.errorPage(w, r, http.StatusInternalServerError, "Prišlo je do napake. Poskusite znova.")
	}
}

func (s *Server) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := s.page(w, r, http.StatusText(status))
	data.Error = message
	s.Templates.RenderStatus(w, status, "error.html", &errorPage{PageData: data, Status: status})
}

// NotFound renders the 404 page for unmatched routes.
func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	s.errorPage(w, r, http.StatusNotFound, "Stran ne obstaja.")
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// formID parses a numeric form field.
func formID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.FormValue(name), 10, 64)
	return id, err == nil && id > 0
}
