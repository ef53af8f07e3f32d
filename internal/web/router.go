package web

import (
	"net/http"
	"time"

	"github.com/erazemk/oglasnik/internal/auth"
	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/ratelimit"
	webembed "github.com/erazemk/oglasnik/web"
)

// NewRouter creates the web page router with all page routes registered.
// limiter may be nil.
func NewRouter(svc *market.Service, secret string, ttl time.Duration, limiter ratelimit.Limiter) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = auth.DefaultTTL
	}

	s := &Server{
		Market:    svc,
		Templates: templates,
		Secret:    secret,
		TTL:       ttl,
		Limiter:   limiter,
	}

	mux := http.NewServeMux()
	login := func(h http.HandlerFunc) http.Handler { return RequireLogin(h) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public pages.
	mux.HandleFunc("GET /{$}", s.Index)
	mux.HandleFunc("GET /announcements/{id}", s.AnnouncementPage)
	mux.HandleFunc("GET /categories/{id}", s.CategoryPage)

	// Session.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)

	// Authoring (owner checks happen in the service).
	mux.Handle("GET /announcements/new", login(s.NewAnnouncementPage))
	mux.Handle("POST /announcements/new", login(s.NewAnnouncementSubmit))
	mux.Handle("GET /announcements/{id}/edit", login(s.EditAnnouncementPage))
	mux.Handle("POST /announcements/{id}/edit", login(s.EditAnnouncementSubmit))
	mux.Handle("POST /announcements/{id}/delete", login(s.DeleteAnnouncementSubmit))

	// Workflow.
	mux.Handle("POST /reserve", login(s.ReserveSubmit))
	mux.Handle("POST /confirm", login(s.ConfirmSubmit))

	// Personal pages.
	mux.Handle("GET /my/announcements", login(s.MyAnnouncementsPage))
	mux.Handle("GET /my/reservations", login(s.MyReservationsPage))
	mux.Handle("GET /profile", login(s.ProfilePage))
	mux.Handle("POST /profile", login(s.ProfileSubmit))
	mux.Handle("POST /profile/password", login(s.PasswordSubmit))

	// Administration (role checks happen in the service).
	mux.Handle("GET /admin/moderation", login(s.ModerationPage))
	mux.Handle("POST /admin/announcements/{id}/status", login(s.ModerateSubmit))
	mux.Handle("GET /admin/categories", login(s.CategoriesPage))
	mux.Handle("POST /admin/categories", login(s.CategoryCreateSubmit))
	mux.Handle("POST /admin/categories/{id}", login(s.CategoryRenameSubmit))
	mux.Handle("GET /admin/users", login(s.UsersPage))
	mux.Handle("POST /admin/users/{id}/role", login(s.UserRoleSubmit))
	mux.Handle("POST /admin/users/{id}/delete", login(s.UserDeleteSubmit))

	mux.HandleFunc("/", s.NotFound)

	// Metrics wrap the mux directly so that requests carry the matched pattern.
	return s.SessionMiddleware(svc.Metrics.Middleware(mux)), nil
}
