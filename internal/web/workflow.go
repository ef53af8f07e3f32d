package web

import (
	"fmt"
	"net/http"
)

// ReserveSubmit handles POST /reserve.
func (s *Server) ReserveSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(r, "announcement_id")
	if !ok {
		s.NotFound(w, r)
		return
	}
	if _, err := s.Market.Reserve(r.Context(), id, actor(r)); err != nil {
		s.fail(w, r, err, fmt.Sprintf("/announcements/%d", id))
		return
	}

	setFlash(w, flashSuccess, "Oglas je rezerviran.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ConfirmSubmit handles POST /confirm.
func (s *Server) ConfirmSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(r, "announcement_id")
	if !ok {
		s.NotFound(w, r)
		return
	}
	if _, err := s.Market.Confirm(r.Context(), id, actor(r)); err != nil {
		s.fail(w, r, err, fmt.Sprintf("/announcements/%d", id))
		return
	}

	setFlash(w, flashSuccess, "Nakup je potrjen.")
	http.Redirect(w, r, "/my/reservations", http.StatusSeeOther)
}
