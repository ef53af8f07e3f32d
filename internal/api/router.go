package api

import (
	"net/http"
	"time"

	"github.com/erazemk/oglasnik/internal/auth"
	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/ratelimit"
)

// NewRouter creates the API router with all endpoints registered. limiter
// may be nil.
func NewRouter(svc *market.Service, secret string, ttl time.Duration, limiter ratelimit.Limiter) http.Handler {
	if ttl <= 0 {
		ttl = auth.DefaultTTL
	}
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Market: svc, Secret: secret, TTL: ttl, Limiter: limiter}
	announcements := &AnnouncementsHandler{Market: svc}

	authMW := AuthMiddleware(secret, svc.DB)

	// Public: login and read-only listings.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/announcements", announcements.List)
	mux.HandleFunc("GET /api/announcements/{id}", announcements.Get)
	mux.HandleFunc("GET /api/categories", announcements.Categories)
	mux.HandleFunc("GET /api/categories/{id}/announcements", announcements.Category)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /api/my/announcements", authMW(http.HandlerFunc(announcements.Mine)))
	mux.Handle("GET /api/my/reservations", authMW(http.HandlerFunc(announcements.Reservations)))
	mux.Handle("POST /api/announcements/{id}/reserve", authMW(http.HandlerFunc(announcements.Reserve)))
	mux.Handle("POST /api/announcements/{id}/confirm", authMW(http.HandlerFunc(announcements.Confirm)))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})

	return svc.Metrics.Middleware(mux)
}
