package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erazemk/oglasnik/internal/market"
)

type profilePage struct {
	PageData
	Form market.ProfileForm
}

// ProfilePage handles GET /profile.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	user, profile, err := s.Market.Profile(r.Context(), actor(r))
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.Templates.Render(w, "profile.html", &profilePage{
		PageData: s.page(w, r, "Profil"),
		Form: market.ProfileForm{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			City:      profile.City,
			Street:    profile.Street,
			ZipCode:   profile.ZipCode,
			Phone:     profile.Phone,
		},
	})
}

// ProfileSubmit handles POST /profile.
func (s *Server) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	form := market.ProfileForm{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		City:      strings.TrimSpace(r.FormValue("city")),
		Street:    strings.TrimSpace(r.FormValue("street")),
		ZipCode:   strings.TrimSpace(r.FormValue("zip_code")),
		Phone:     strings.TrimSpace(r.FormValue("phone")),
	}

	err := s.Market.UpdateProfile(r.Context(), actor(r), form)
	var verr *market.ValidationError
	if errors.As(err, &verr) {
		data := s.page(w, r, "Profil")
		data.Errors = verr.Fields
		s.Templates.RenderStatus(w, http.StatusUnprocessableEntity, "profile.html", &profilePage{PageData: data, Form: form})
		return
	}
	if err != nil {
		s.fail(w, r, err, "/profile")
		return
	}

	setFlash(w, flashSuccess, "Profil je shranjen.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// PasswordSubmit handles POST /profile/password.
func (s *Server) PasswordSubmit(w http.ResponseWriter, r *http.Request) {
	form := market.PasswordForm{
		Current:        r.FormValue("current_password"),
		New:            r.FormValue("new_password"),
		RepeatPassword: r.FormValue("repeat_password"),
	}

	if err := s.Market.ChangePassword(r.Context(), actor(r), form); err != nil {
		s.fail(w, r, err, "/profile")
		return
	}

	setFlash(w, flashSuccess, "Geslo je spremenjeno.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
