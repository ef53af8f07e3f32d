package market

import (
	"context"
	"fmt"

	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

// CanMutate reports whether actor may edit or delete the announcement, which
// is true only for its owner.
func CanMutate(a *model.Announcement, actor *Actor) bool {
	return a != nil && actor != nil && a.OwnerID == actor.ID
}

// owned loads an announcement the actor is about to change and applies the
// ownership guard.
func (s *Service) owned(ctx context.Context, id int64, actor *Actor) (*model.Announcement, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	a, err := store.GetAnnouncement(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("announcement %d: %w", id, ErrNotFound)
	}
	if !CanMutate(a, actor) {
		return nil, fmt.Errorf("announcement %d owned by another user: %w", id, ErrForbidden)
	}
	return a, nil
}
