package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

func TestPublicListingOnlyAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A new announcement is not listed.
	a := f.announcement(t, "Telefon", model.StatusNew)
	list, err := f.svc.PublicListing(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	require.NoError(t, f.svc.Moderate(ctx, a.ID, model.StatusAccepted, f.admin))
	list, err = f.svc.PublicListing(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	for _, s := range []model.Status{model.StatusRejected, model.StatusReserved, model.StatusSold} {
		f.announcement(t, "Skrit "+s.String(), s)
	}
	list, err = f.svc.PublicListing(ctx)
	require.NoError(t, err)
	for _, got := range list {
		assert.Equal(t, model.StatusAccepted, got.Status)
	}
	assert.Len(t, list, 1)
}

func TestPublicListingNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.announcement(t, "Prvi", model.StatusAccepted)
	second := f.announcement(t, "Drugi", model.StatusAccepted)
	_, err := f.svc.DB.ExecContext(ctx,
		`UPDATE announcements SET created_at = datetime('now', '-1 day') WHERE id = ?`, first.ID)
	require.NoError(t, err)

	list, err := f.svc.PublicListing(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestCategoryListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := store.CreateCategory(ctx, f.svc.DB, "Pohištvo")
	require.NoError(t, err)
	a := f.announcement(t, "Telefon", model.StatusAccepted)
	f.announcement(t, "Čaka", model.StatusNew)

	c, list, err := f.svc.CategoryListing(ctx, f.category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Elektronika", c.Name)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	c, list, err = f.svc.CategoryListing(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pohištvo", c.Name)
	assert.Empty(t, list)

	_, _, err = f.svc.CategoryListing(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnerListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, s := range model.Statuses {
		f.announcement(t, "Oglas "+s.String(), s)
	}

	list, err := f.svc.OwnerListing(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, list, len(model.Statuses))
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}

	list, err = f.svc.OwnerListing(ctx, f.buyer)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.OwnerListing(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestReservationListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.announcement(t, "Telefon", model.StatusAccepted)
	f.announcement(t, "Drugo", model.StatusAccepted)

	_, err := f.svc.Reserve(ctx, a.ID, f.buyer)
	require.NoError(t, err)

	list, err := f.svc.ReservationListing(ctx, f.buyer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Telefon", list[0].AnnouncementTitle)
	assert.Equal(t, model.StatusReserved, list[0].AnnouncementStatus)

	list, err = f.svc.ReservationListing(ctx, f.owner)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.ReservationListing(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestModerationQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	waiting := f.announcement(t, "Čaka", model.StatusNew)
	f.announcement(t, "Objavljen", model.StatusAccepted)

	list, err := f.svc.ModerationQueue(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, waiting.ID, list[0].ID)

	_, err = f.svc.ModerationQueue(ctx, f.owner)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAnnouncementAndCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Announcement(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.CreateCategory(ctx, f.svc.DB, "Avto")
	require.NoError(t, err)
	cats, err := f.svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Avto", cats[0].Name)
	assert.Equal(t, "Elektronika", cats[1].Name)
}
