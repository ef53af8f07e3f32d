package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/media"
)

type announcementFormPage struct {
	PageData
	ID   int64
	Form market.AnnouncementForm
}

// NewAnnouncementPage handles GET /announcements/new.
func (s *Server) NewAnnouncementPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "announcement_form.html", &announcementFormPage{
		PageData: s.page(w, r, "Nov oglas"),
	})
}

// NewAnnouncementSubmit handles POST /announcements/new.
func (s *Server) NewAnnouncementSubmit(w http.ResponseWriter, r *http.Request) {
	form, image, closeImage, err := parseAnnouncementForm(w, r)
	if err != nil {
		s.announcementFormError(w, r, 0, form, err)
		return
	}
	defer closeImage()

	a, err := s.Market.CreateAnnouncement(r.Context(), actor(r), form, image)
	if err != nil {
		s.announcementFormError(w, r, 0, form, err)
		return
	}

	setFlash(w, flashSuccess, "Oglas je oddan in čaka na odobritev.")
	http.Redirect(w, r, fmt.Sprintf("/announcements/%d", a.ID), http.StatusSeeOther)
}

// EditAnnouncementPage handles GET /announcements/{id}/edit.
func (s *Server) EditAnnouncementPage(w http.ResponseWriter, r *http.Request) {
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
	if !market.CanMutate(a, actor(r)) {
		s.fail(w, r, market.ErrForbidden, "/")
		return
	}

	s.Templates.Render(w, "announcement_form.html", &announcementFormPage{
		PageData: s.page(w, r, "Urejanje oglasa"),
		ID:       a.ID,
		Form: market.AnnouncementForm{
			Title:       a.Title,
			Description: a.Description,
			Price:       a.Price.StringFixed(2),
			CategoryID:  a.CategoryID,
		},
	})
}

// EditAnnouncementSubmit handles POST /announcements/{id}/edit.
func (s *Server) EditAnnouncementSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.NotFound(w, r)
		return
	}
	form, image, closeImage, err := parseAnnouncementForm(w, r)
	if err != nil {
		s.announcementFormError(w, r, id, form, err)
		return
	}
	defer closeImage()

	if _, err := s.Market.UpdateAnnouncement(r.Context(), actor(r), id, form, image); err != nil {
		s.announcementFormError(w, r, id, form, err)
		return
	}

	setFlash(w, flashSuccess, "Oglas je posodobljen.")
	http.Redirect(w, r, fmt.Sprintf("/announcements/%d", id), http.StatusSeeOther)
}

// DeleteAnnouncementSubmit handles POST /announcements/{id}/delete.
func (s *Server) DeleteAnnouncementSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.NotFound(w, r)
		return
	}
	if err := s.Market.DeleteAnnouncement(r.Context(), actor(r), id); err != nil {
		s.fail(w, r, err, fmt.Sprintf("/announcements/%d", id))
		return
	}

	setFlash(w, flashSuccess, "Oglas je izbrisan.")
	http.Redirect(w, r, "/my/announcements", http.StatusSeeOther)
}

// announcementFormError re-renders the form with field errors, or falls back
// to the generic error handling.
func (s *Server) announcementFormError(w http.ResponseWriter, r *http.Request, id int64, form market.AnnouncementForm, err error) {
	var verr *market.ValidationError
	if !errors.As(err, &verr) {
		s.fail(w, r, err, "/")
		return
	}

	title := "Nov oglas"
	if id > 0 {
		title = "Urejanje oglasa"
	}
	data := s.page(w, r, title)
	data.Errors = verr.Fields
	s.Templates.RenderStatus(w, http.StatusUnprocessableEntity, "announcement_form.html", &announcementFormPage{
		PageData: data,
		ID:       id,
		Form:     form,
	})
}

// parseAnnouncementForm reads the multipart announcement form. The image is
// nil when no file was chosen; closeImage must be called when done.
func parseAnnouncementForm(w http.ResponseWriter, r *http.Request) (market.AnnouncementForm, io.Reader, func(), error) {
	noop := func() {}
	var form market.AnnouncementForm

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(media.MaxUploadBytes + 1<<20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return form, nil, noop, &market.ValidationError{Fields: map[string]string{"image": "Slika je prevelika."}}
	}

	categoryID, _ := strconv.ParseInt(r.FormValue("category"), 10, 64)
	form = market.AnnouncementForm{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		CategoryID:  categoryID,
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return form, nil, noop, nil
	}
	if err != nil {
		return form, nil, noop, fmt.Errorf("reading image upload: %w", err)
	}
	return form, file, func() { file.Close() }, nil
}
