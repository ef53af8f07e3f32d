package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/erazemk/oglasnik/internal/auth"
	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

const (
	sessionCookie = "session"
	flashCookie   = "flash"
)

// SessionMiddleware resolves the session cookie into claims carrying the
// account's current role. Requests without a valid, unrevoked session of an
// existing account continue anonymously.
func (s *Server) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := auth.Parse(s.Secret, cookie.Value)
		if err != nil {
			clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		revoked, err := store.IsSessionRevoked(r.Context(), s.Market.DB, claims.ID)
		if err != nil {
			slog.Error("failed to check session revocation", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if revoked {
			clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		user, err := store.GetUser(r.Context(), s.Market.DB, claims.UserID)
		if err != nil {
			slog.Error("failed to load session user", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), webClaimsKey, claims.For(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLogin redirects anonymous visitors to the login page, remembering
// where they were headed.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetWebClaims(r.Context()) == nil {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		// A POST cannot be replayed; send the user back to where the form was.
		target = localPath(r.Referer(), "/")
	}
	http.Redirect(w, r, "/login?next="+url.QueryEscape(target), http.StatusSeeOther)
}

// localPath returns raw if it is a path on this site, fallback otherwise.
func localPath(raw, fallback string) string {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return fallback
	}
	if u.IsAbs() {
		raw = u.RequestURI()
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}

func setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie clears the session cookie with consistent attributes.
func clearSessionCookie(w http.ResponseWriter) {
	setSessionCookie(w, "", -1)
}

// GetWebClaims retrieves the session claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}

// actor returns the acting user of the request, or nil for visitors.
func actor(r *http.Request) *market.Actor {
	claims := GetWebClaims(r.Context())
	if claims == nil {
		return nil
	}
	return &market.Actor{ID: claims.UserID, Username: claims.Username, Role: claims.Role}
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// Flash kinds, used as CSS classes.
const (
	flashSuccess = "success"
	flashWarning = "warning"
	flashError   = "error"
)

func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + ":" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, ":")
	if !ok {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}
