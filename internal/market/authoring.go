package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/oglasnik/internal/media"
	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

// CreateAnnouncement validates the form, stores the optional image and
// creates the announcement awaiting moderation.
func (s *Service) CreateAnnouncement(ctx context.Context, actor *Actor, form AnnouncementForm, image io.Reader) (_ *model.Announcement, err error) {
	ctx, end := startSpan(ctx, "market.CreateAnnouncement")
	defer func() { end(err) }()

	if actor == nil {
		return nil, ErrUnauthorized
	}
	if err := s.checkAnnouncement(ctx, form); err != nil {
		return nil, err
	}

	ref, err := s.saveImage(image)
	if err != nil {
		return nil, err
	}

	price, _ := parsePrice(form.Price)
	a, err := store.CreateAnnouncement(ctx, s.DB, actor.ID, form.CategoryID, form.Title, form.Description, price, ref)
	if err != nil {
		s.removeImage(ref)
		return nil, err
	}

	slog.Info("announcement created", "announcement", a.ID, "user", actor.Username)
	return a, nil
}

// UpdateAnnouncement changes the content of the actor's announcement. A nil
// image keeps the current one. The status is not changed.
func (s *Service) UpdateAnnouncement(ctx context.Context, actor *Actor, id int64, form AnnouncementForm, image io.Reader) (_ *model.Announcement, err error) {
	ctx, end := startSpan(ctx, "market.UpdateAnnouncement", trace.WithAttributes(attribute.Int64("announcement.id", id)))
	defer func() { end(err) }()

	current, err := s.owned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.checkAnnouncement(ctx, form); err != nil {
		return nil, err
	}

	ref, err := s.saveImage(image)
	if err != nil {
		return nil, err
	}

	price, _ := parsePrice(form.Price)
	if err := store.UpdateAnnouncement(ctx, s.DB, id, form.CategoryID, form.Title, form.Description, price, ref); err != nil {
		s.removeImage(ref)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("announcement %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if ref != "" {
		s.removeImage(current.Image)
	}

	slog.Info("announcement updated", "announcement", id, "user", actor.Username)
	return s.Announcement(ctx, id)
}

// DeleteAnnouncement deletes the actor's announcement together with its
// reservations. The image file is removed on a best-effort basis.
func (s *Service) DeleteAnnouncement(ctx context.Context, actor *Actor, id int64) (err error) {
	ctx, end := startSpan(ctx, "market.DeleteAnnouncement", trace.WithAttributes(attribute.Int64("announcement.id", id)))
	defer func() { end(err) }()

	a, err := s.owned(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := store.DeleteAnnouncement(ctx, s.DB, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("announcement %d: %w", id, ErrNotFound)
		}
		return err
	}
	s.removeImage(a.Image)

	slog.Info("announcement deleted", "announcement", id, "user", actor.Username)
	return nil
}

// checkAnnouncement validates the form and that its category exists.
func (s *Service) checkAnnouncement(ctx context.Context, form AnnouncementForm) error {
	if err := check(form); err != nil {
		return err
	}
	c, err := store.GetCategory(ctx, s.DB, form.CategoryID)
	if err != nil {
		return err
	}
	if c == nil {
		return fieldError("category", "Izbrana kategorija ne obstaja.")
	}
	return nil
}

// saveImage stores an uploaded image and returns its reference, or "" when
// there is no upload.
func (s *Service) saveImage(image io.Reader) (string, error) {
	if image == nil {
		return "", nil
	}
	if s.Images == nil {
		return "", errors.New("image storage not configured")
	}
	ref, err := s.Images.Save(image, s.now())
	if errors.Is(err, media.ErrInvalidImage) {
		return "", fieldError("image", "Naložite sliko v obliki JPEG ali PNG, veliko največ 5 MB.")
	}
	if err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	return ref, nil
}

func (s *Service) removeImage(ref string) {
	if ref == "" || s.Images == nil {
		return
	}
	if err := s.Images.Remove(ref); err != nil {
		slog.Warn("failed to remove image", "image", ref, "error", err)
	}
}
