// Package market implements the marketplace rules: the announcement status
// workflow, the ownership guard, the listing queries and the account
// workflows. Callers pass the acting user explicitly to every operation.
package market

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/oglasnik/internal/events"
	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/observability"
)

// Actor is the user on whose behalf an operation runs. A nil *Actor is an
// anonymous visitor.
type Actor struct {
	ID       int64
	Username string
	Role     string
}

// IsAdmin reports whether the actor is an administrator.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == model.RoleAdmin
}

// ActorOf returns the actor for a user, or nil for a nil user.
func ActorOf(u *model.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

// ImageStore stores uploaded announcement images.
type ImageStore interface {
	Save(r io.Reader, now time.Time) (string, error)
	Remove(ref string) error
}

// Service runs marketplace operations against the database.
type Service struct {
	DB      *sql.DB
	Images  ImageStore
	Events  events.Publisher
	Metrics *observability.Metrics

	// PasswordCost is the bcrypt cost for new password hashes.
	PasswordCost int

	now func() time.Time
}

// New returns a service. events and metrics may be nil.
func New(db *sql.DB, images ImageStore, pub events.Publisher, metrics *observability.Metrics) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		DB:           db,
		Images:       images,
		Events:       pub,
		Metrics:      metrics,
		PasswordCost: bcrypt.DefaultCost,
		now:          time.Now,
	}
}

const publishTimeout = 3 * time.Second

var tracer = otel.Tracer("github.com/erazemk/oglasnik/internal/market")

// startSpan starts a span for an operation. Call the returned function with
// the operation's final error.
func startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, name, opts...)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// transitioned records a completed status transition: it bumps the metric
// and publishes the event. Publishing failures are only logged.
func (s *Service) transitioned(ctx context.Context, name string, e events.Event) {
	s.Metrics.Transition(name)
	e.OccurredAt = s.now().UTC()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Events.Publish(ctx, e); err != nil {
		slog.Warn("failed to publish event", "type", e.Type, "announcement", e.AnnouncementID, "error", err)
	}
}
