package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/ratelimit"
	webembed "github.com/erazemk/oglasnik/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"statusLabel": func(s model.Status) string { return s.Label() },
		"isAccepted":  func(s model.Status) bool { return s == model.StatusAccepted },
		"isReserved":  func(s model.Status) bool { return s == model.StatusReserved },
		"canMutate":   market.CanMutate,
		"price": func(d decimal.Decimal) string {
			return d.StringFixed(2) + " €"
		},
		"date": func(t time.Time) string {
			return t.Local().Format("2. 1. 2006 15:04")
		},
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleUser:
				return "Uporabnik"
			default:
				return role
			}
		},
		"roles": func() []string { return []string{model.RoleUser, model.RoleAdmin} },
	}
}

// pages lists the page templates, each rendered inside layout.html.
var pages = []string{
	"index.html",
	"announcement.html",
	"announcement_form.html",
	"category.html",
	"my_announcements.html",
	"my_reservations.html",
	"login.html",
	"register.html",
	"profile.html",
	"moderation.html",
	"categories.html",
	"users.html",
	"error.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with status 200.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code. The page is
// rendered into a buffer first so that a template error yields a clean 500.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title      string
	User       *market.Actor
	Flash      *Flash
	Categories []model.Category
	Errors     map[string]string
	Error      string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Market    *market.Service
	Templates *Templates
	Secret    string
	TTL       time.Duration
	Limiter   ratelimit.Limiter
}
