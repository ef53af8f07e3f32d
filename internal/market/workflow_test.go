package market

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/oglasnik/internal/events"
	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

func TestReserve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.announcement(t, "Telefon", model.StatusAccepted)

	r, err := f.svc.Reserve(ctx, a.ID, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, a.ID, r.AnnouncementID)
	assert.Equal(t, f.buyer.ID, r.UserID)

	got, err := f.svc.Announcement(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReserved, got.Status)

	list, err := store.ListReservations(ctx, f.svc.DB, 0, a.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "exactly one reservation per reserve")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("reserve")))
	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeReserved, evs[0].Type)
	assert.Equal(t, a.ID, evs[0].AnnouncementID)
	assert.Equal(t, f.buyer.ID, evs[0].ActorID)
}

func TestReserveErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.announcement(t, "Telefon", model.StatusAccepted)

	_, err := f.svc.Reserve(ctx, a.ID, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Reserve(ctx, 9999, f.buyer)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, status := range []model.Status{model.StatusNew, model.StatusRejected, model.StatusSold} {
		b := f.announcement(t, "Oglas "+status.String(), model.StatusNew)
		if status != model.StatusNew {
			require.NoError(t, store.SetAnnouncementStatus(ctx, f.svc.DB, b.ID, status, model.StatusNew))
		}
		_, err := f.svc.Reserve(ctx, b.ID, f.buyer)
		assert.ErrorIs(t, err, ErrConflict, "reserve from %s", status)

		list, _ := store.ListReservations(ctx, f.svc.DB, 0, b.ID)
		assert.Empty(t, list, "no reservation after conflict from %s", status)
	}
	assert.Empty(t, f.events.Events())
}

func TestReserveConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.announcement(t, "Telefon", model.StatusAccepted)

	actors := []*Actor{f.buyer, f.user(t, "cene", model.RoleUser), f.user(t, "dora", model.RoleUser)}
	errs := make([]error, len(actors))
	var wg sync.WaitGroup
	for i, actor := range actors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Reserve(ctx, a.ID, actor)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}
	assert.Equal(t, 1, succeeded)

	list, err := store.ListReservations(ctx, f.svc.DB, 0, a.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.announcement(t, "Telefon", model.StatusAccepted)

	_, err := f.svc.Reserve(ctx, a.ID, f.buyer)
	require.NoError(t, err)

	tx, err := f.svc.Confirm(ctx, a.ID, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, tx.SellerID)
	assert.Equal(t, f.buyer.ID, tx.BuyerID)
	require.NotNil(t, tx.AnnouncementID)
	assert.Equal(t, a.ID, *tx.AnnouncementID)

	got, _ := f.svc.Announcement(ctx, a.ID)
	assert.Equal(t, model.StatusSold, got.Status)

	txs, err := f.svc.TransactionListing(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	evs := f.events.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, events.TypeSold, evs[1].Type)
	assert.Equal(t, f.owner.ID, evs[1].OwnerID)
}

func TestConfirmWithoutReservationHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.announcement(t, "Telefon", model.StatusAccepted)

	_, err := f.svc.Reserve(ctx, a.ID, f.buyer)
	require.NoError(t, err)

	other := f.user(t, "cene", model.RoleUser)
	tx, err := f.svc.Confirm(ctx, a.ID, other)
	require.NoError(t, err)
	assert.Equal(t, other.ID, tx.BuyerID)
}

func TestConfirmErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.announcement(t, "Telefon", model.StatusAccepted)

	_, err := f.svc.Confirm(ctx, a.ID, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Confirm(ctx, 9999, f.buyer)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Confirm(ctx, a.ID, f.buyer)
	assert.ErrorIs(t, err, ErrConflict, "accepted announcement cannot be confirmed")

	txs, _ := f.svc.TransactionListing(ctx, f.buyer)
	assert.Empty(t, txs)
}

func TestModerate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.announcement(t, "Telefon", model.StatusNew)

	assert.ErrorIs(t, f.svc.Moderate(ctx, a.ID, model.StatusAccepted, nil), ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Moderate(ctx, a.ID, model.StatusAccepted, f.owner), ErrForbidden)

	var verr *ValidationError
	require.True(t, errors.As(f.svc.Moderate(ctx, a.ID, model.StatusSold, f.admin), &verr))
	assert.Contains(t, verr.Fields, "status")

	require.NoError(t, f.svc.Moderate(ctx, a.ID, model.StatusAccepted, f.admin))
	got, _ := f.svc.Announcement(ctx, a.ID)
	assert.Equal(t, model.StatusAccepted, got.Status)

	require.NoError(t, f.svc.Moderate(ctx, a.ID, model.StatusRejected, f.admin))
	got, _ = f.svc.Announcement(ctx, a.ID)
	assert.Equal(t, model.StatusRejected, got.Status)

	assert.ErrorIs(t, f.svc.Moderate(ctx, 9999, model.StatusAccepted, f.admin), ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("moderate_accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("moderate_rejected")))
}

func TestModerateSettledAnnouncementConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.announcement(t, "Telefon", model.StatusAccepted)
	_, err := f.svc.Reserve(ctx, a.ID, f.buyer)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Moderate(ctx, a.ID, model.StatusRejected, f.admin), ErrConflict)
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.events.Err = errors.New("broker down")
	a := f.announcement(t, "Telefon", model.StatusAccepted)

	_, err := f.svc.Reserve(ctx, a.ID, f.buyer)
	require.NoError(t, err)
	assert.Len(t, f.events.Events(), 1)
}
