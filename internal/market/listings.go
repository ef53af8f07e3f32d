package market

import (
	"context"
	"fmt"

	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

// PublicListing returns accepted announcements, most recent first.
func (s *Service) PublicListing(ctx context.Context) ([]model.Announcement, error) {
	list, err := store.ListAnnouncements(ctx, s.DB, store.AnnouncementFilter{
		Status: model.StatusAccepted,
		Newest: true,
	})
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

// CategoryListing returns a category and its accepted announcements, most
// recent first.
func (s *Service) CategoryListing(ctx context.Context, categoryID int64) (*model.Category, []model.Announcement, error) {
	category, err := store.GetCategory(ctx, s.DB, categoryID)
	if err != nil {
		return nil, nil, err
	}
	if category == nil {
		return nil, nil, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
	}

	list, err := store.ListAnnouncements(ctx, s.DB, store.AnnouncementFilter{
		Status:     model.StatusAccepted,
		CategoryID: categoryID,
		Newest:     true,
	})
	if err != nil {
		return nil, nil, err
	}
	return category, nonNil(list), nil
}

// OwnerListing returns all of the actor's announcements in any status.
func (s *Service) OwnerListing(ctx context.Context, actor *Actor) ([]model.Announcement, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	list, err := store.ListAnnouncements(ctx, s.DB, store.AnnouncementFilter{OwnerID: actor.ID})
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

// ReservationListing returns the reservations made by the actor.
func (s *Service) ReservationListing(ctx context.Context, actor *Actor) ([]model.Reservation, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	list, err := store.ListReservations(ctx, s.DB, actor.ID, 0)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

// TransactionListing returns completed sales the actor took part in, as
// seller or buyer.
func (s *Service) TransactionListing(ctx context.Context, actor *Actor) ([]model.Transaction, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	list, err := store.ListTransactions(ctx, s.DB, actor.ID)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

// ModerationQueue returns announcements waiting for approval. Administrators only.
func (s *Service) ModerationQueue(ctx context.Context, actor *Actor) ([]model.Announcement, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	list, err := store.ListAnnouncements(ctx, s.DB, store.AnnouncementFilter{Status: model.StatusNew})
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

// Announcement returns a single announcement.
func (s *Service) Announcement(ctx context.Context, id int64) (*model.Announcement, error) {
	a, err := store.GetAnnouncement(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("announcement %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// Categories returns all categories ordered by name.
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	list, err := store.ListCategories(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
