package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/model"
)

// ModerationPage handles GET /admin/moderation.
func (s *Server) ModerationPage(w http.ResponseWriter, r *http.Request) {
	list, err := s.Market.ModerationQueue(r.Context(), actor(r))
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.Templates.Render(w, "moderation.html", &listingPage{
		PageData:      s.page(w, r, "Moderiranje"),
		Announcements: list,
	})
}

// ModerateSubmit handles POST /admin/announcements/{id}/status.
func (s *Server) ModerateSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.NotFound(w, r)
		return
	}
	status, _ := strconv.Atoi(r.FormValue("status"))

	if err := s.Market.Moderate(r.Context(), id, model.Status(status), actor(r)); err != nil {
		s.fail(w, r, err, "/admin/moderation")
		return
	}

	setFlash(w, flashSuccess, "Status oglasa je spremenjen v »"+model.Status(status).Label()+"«.")
	http.Redirect(w, r, localPath(r.FormValue("next"), "/admin/moderation"), http.StatusSeeOther)
}

type categoriesPage struct {
	PageData
	Name string
}

// CategoriesPage handles GET /admin/categories.
func (s *Server) CategoriesPage(w http.ResponseWriter, r *http.Request) {
	if a := actor(r); !a.IsAdmin() {
		s.fail(w, r, market.ErrForbidden, "/")
		return
	}
	s.Templates.Render(w, "categories.html", &categoriesPage{PageData: s.page(w, r, "Kategorije")})
}

// CategoryCreateSubmit handles POST /admin/categories.
func (s *Server) CategoryCreateSubmit(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	_, err := s.Market.CreateCategory(r.Context(), actor(r), name)

	var verr *market.ValidationError
	if errors.As(err, &verr) {
		data := s.page(w, r, "Kategorije")
		data.Errors = verr.Fields
		s.Templates.RenderStatus(w, http.StatusUnprocessableEntity, "categories.html", &categoriesPage{PageData: data, Name: name})
		return
	}
	if err != nil {
		s.fail(w, r, err, "/admin/categories")
		return
	}

	setFlash(w, flashSuccess, "Kategorija je dodana.")
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryRenameSubmit handles POST /admin/categories/{id}.
func (s *Server) CategoryRenameSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.NotFound(w, r)
		return
	}
	if err := s.Market.RenameCategory(r.Context(), actor(r), id, r.FormValue("name")); err != nil {
		s.fail(w, r, err, "/admin/categories")
		return
	}

	setFlash(w, flashSuccess, "Kategorija je preimenovana.")
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// UsersPage handles GET /admin/users.
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := s.Market.Users(r.Context(), actor(r))
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.Templates.Render(w, "users.html", &struct {
		PageData
		Users []model.User
	}{
		PageData: s.page(w, r, "Uporabniki"),
		Users:    users,
	})
}

// UserRoleSubmit handles POST /admin/users/{id}/role.
func (s *Server) UserRoleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.NotFound(w, r)
		return
	}
	if err := s.Market.SetRole(r.Context(), actor(r), id, r.FormValue("role")); err != nil {
		s.fail(w, r, err, "/admin/users")
		return
	}

	setFlash(w, flashSuccess, "Vloga je spremenjena.")
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// UserDeleteSubmit handles POST /admin/users/{id}/delete.
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.NotFound(w, r)
		return
	}
	if err := s.Market.DeleteUser(r.Context(), actor(r), id); err != nil {
		s.fail(w, r, err, "/admin/users")
		return
	}

	setFlash(w, flashSuccess, "Uporabnik je izbrisan.")
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
