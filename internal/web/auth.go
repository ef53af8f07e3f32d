package web

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/oglasnik/internal/auth"
	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

type loginPage struct {
	PageData
	Username string
	Next     string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &loginPage{
		PageData: s.page(w, r, "Prijava"),
		Next:     localPath(r.URL.Query().Get("next"), "/"),
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := localPath(r.FormValue("next"), "/")

	fail := func(status int, message string) {
		data := s.page(w, r, "Prijava")
		data.Error = message
		s.Templates.RenderStatus(w, status, "login.html", &loginPage{PageData: data, Username: username, Next: next})
	}

	if username == "" || password == "" {
		fail(http.StatusBadRequest, "Vnesite uporabniško ime in geslo.")
		return
	}

	if wait, limited := s.throttled(r, username); limited {
		fail(http.StatusTooManyRequests, fmt.Sprintf("Preveč poskusov prijave. Poskusite znova čez %d s.", int(math.Ceil(wait.Seconds()))))
		return
	}

	user, err := s.Market.Authenticate(r.Context(), username, password)
	if errors.Is(err, market.ErrInvalidCredentials) {
		slog.Warn("login failed", "username", username, "remote", r.RemoteAddr)
		fail(http.StatusUnauthorized, "Napačno uporabniško ime ali geslo.")
		return
	}
	if err != nil {
		slog.Error("failed to authenticate", "error", err)
		fail(http.StatusInternalServerError, "Napaka pri prijavi.")
		return
	}

	if err := s.startSession(w, user); err != nil {
		slog.Error("failed to issue session", "error", err)
		fail(http.StatusInternalServerError, "Napaka pri prijavi.")
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// throttled consults the login limiter. Limiter failures let the attempt
// through.
func (s *Server) throttled(r *http.Request, username string) (time.Duration, bool) {
	if s.Limiter == nil {
		return 0, false
	}
	ok, wait, err := s.Limiter.Allow(r.Context(), strings.ToLower(username))
	if err != nil {
		slog.Warn("login rate limiter unavailable", "error", err)
		return 0, false
	}
	return wait, !ok
}

func (s *Server) startSession(w http.ResponseWriter, user *model.User) error {
	token, _, err := auth.Issue(s.Secret, user, s.TTL)
	if err != nil {
		return err
	}
	setSessionCookie(w, token, int(s.TTL.Seconds()))
	return nil
}

// Logout handles POST /logout. The session token is revoked so that a copied
// cookie stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil && claims.ExpiresAt != nil {
		if err := store.RevokeSession(r.Context(), s.Market.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke session", "error", err)
		} else {
			slog.Info("user logged out", "user", claims.Username)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type registerPage struct {
	PageData
	Username string
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &registerPage{PageData: s.page(w, r, "Registracija")})
}

// RegisterSubmit handles POST /register. A successful registration logs the
// new user in.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	form := market.RegisterForm{
		Username:       strings.TrimSpace(r.FormValue("username")),
		Password:       r.FormValue("password"),
		RepeatPassword: r.FormValue("repeat_password"),
	}

	user, err := s.Market.Register(r.Context(), form)
	var verr *market.ValidationError
	if errors.As(err, &verr) {
		data := s.page(w, r, "Registracija")
		data.Errors = verr.Fields
		s.Templates.RenderStatus(w, http.StatusUnprocessableEntity, "register.html", &registerPage{PageData: data, Username: form.Username})
		return
	}
	if err != nil {
		s.fail(w, r, err, "/register")
		return
	}

	if err := s.startSession(w, user); err != nil {
		slog.Error("failed to issue session", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	setFlash(w, flashSuccess, "Dobrodošli! Dopolnite svoj profil.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
