package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/oglasnik/internal/events"
	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

// Reserve moves an accepted announcement to reserved and records the
// actor's reservation. Reserving an announcement in any other status,
// including one reserved a moment ago by someone else, is ErrConflict.
func (s *Service) Reserve(ctx context.Context, announcementID int64, actor *Actor) (_ *model.Reservation, err error) {
	ctx, end := startSpan(ctx, "market.Reserve", trace.WithAttributes(attribute.Int64("announcement.id", announcementID)))
	defer func() { end(err) }()

	if actor == nil {
		return nil, ErrUnauthorized
	}

	r, err := store.ReserveAnnouncement(ctx, s.DB, announcementID, actor.ID)
	if err != nil {
		return nil, transitionError(announcementID, err)
	}

	slog.Info("announcement reserved", "announcement", announcementID, "user", actor.Username)
	s.transitioned(ctx, "reserve", events.Event{
		Type:           events.TypeReserved,
		AnnouncementID: announcementID,
		ActorID:        actor.ID,
		Status:         model.StatusReserved.String(),
	})
	return r, nil
}

// Confirm completes the sale of a reserved announcement: it becomes sold and
// a transaction between its owner and the actor is recorded. The actor does
// not need to hold the reservation.
func (s *Service) Confirm(ctx context.Context, announcementID int64, actor *Actor) (_ *model.Transaction, err error) {
	ctx, end := startSpan(ctx, "market.Confirm", trace.WithAttributes(attribute.Int64("announcement.id", announcementID)))
	defer func() { end(err) }()

	if actor == nil {
		return nil, ErrUnauthorized
	}

	t, err := store.ConfirmAnnouncement(ctx, s.DB, announcementID, actor.ID)
	if err != nil {
		return nil, transitionError(announcementID, err)
	}

	slog.Info("announcement sold", "announcement", announcementID, "seller", t.SellerID, "buyer", actor.Username)
	s.transitioned(ctx, "confirm", events.Event{
		Type:           events.TypeSold,
		AnnouncementID: announcementID,
		ActorID:        actor.ID,
		OwnerID:        t.SellerID,
		Status:         model.StatusSold.String(),
	})
	return t, nil
}

// moderatable lists the statuses an administrator may move an announcement
// out of. Reserved and sold announcements are settled by their users.
var moderatable = []model.Status{model.StatusNew, model.StatusAccepted, model.StatusRejected}

// Moderate sets an announcement to accepted or rejected. Administrators only.
func (s *Service) Moderate(ctx context.Context, announcementID int64, to model.Status, actor *Actor) (err error) {
	ctx, end := startSpan(ctx, "market.Moderate", trace.WithAttributes(
		attribute.Int64("announcement.id", announcementID),
		attribute.String("status", to.String()),
	))
	defer func() { end(err) }()

	if actor == nil {
		return ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if to != model.StatusAccepted && to != model.StatusRejected {
		return fieldError("status", "Oglas je mogoče le odobriti ali zavrniti.")
	}

	if err := store.SetAnnouncementStatus(ctx, s.DB, announcementID, to, moderatable...); err != nil {
		return transitionError(announcementID, err)
	}

	slog.Info("announcement moderated", "announcement", announcementID, "status", to.String(), "admin", actor.Username)
	s.transitioned(ctx, "moderate_"+to.String(), events.Event{
		Type:           events.TypeModerated,
		AnnouncementID: announcementID,
		ActorID:        actor.ID,
		Status:         to.String(),
	})
	return nil
}

func transitionError(announcementID int64, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("announcement %d: %w", announcementID, ErrNotFound)
	case errors.Is(err, store.ErrStatusChanged):
		return fmt.Errorf("announcement %d: %w", announcementID, ErrConflict)
	default:
		return err
	}
}
