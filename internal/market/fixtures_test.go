package market

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/oglasnik/internal/db"
	"github.com/erazemk/oglasnik/internal/events"
	"github.com/erazemk/oglasnik/internal/media"
	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/observability"
	"github.com/erazemk/oglasnik/internal/store"
)

type fixture struct {
	svc      *Service
	events   *events.Recorder
	metrics  *observability.Metrics
	category *model.Category
	owner    *Actor
	buyer    *Actor
	admin    *Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	images, err := media.New(t.TempDir())
	require.NoError(t, err)

	rec := &events.Recorder{}
	metrics := observability.NewMetrics()
	svc := New(database, images, rec, metrics)
	svc.PasswordCost = bcrypt.MinCost

	f := &fixture{svc: svc, events: rec, metrics: metrics}
	f.owner = f.user(t, "ana", model.RoleUser)
	f.buyer = f.user(t, "bojan", model.RoleUser)
	f.admin = f.user(t, "admin", model.RoleAdmin)

	f.category, err = store.CreateCategory(context.Background(), database, "Elektronika")
	require.NoError(t, err)
	return f
}

func (f *fixture) user(t *testing.T, name, role string) *Actor {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("geslo1234"), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := store.CreateUser(context.Background(), f.svc.DB, name, string(hash), role)
	require.NoError(t, err)
	return ActorOf(u)
}

// announcement creates an announcement of the owner in the given status.
func (f *fixture) announcement(t *testing.T, title string, status model.Status) *model.Announcement {
	t.Helper()
	ctx := context.Background()
	a, err := store.CreateAnnouncement(ctx, f.svc.DB, f.owner.ID, f.category.ID, title, "Opis", decimal.RequireFromString("300"), "")
	require.NoError(t, err)
	if status != model.StatusNew {
		require.NoError(t, store.SetAnnouncementStatus(ctx, f.svc.DB, a.ID, status, model.StatusNew))
		a.Status = status
	}
	return a
}

func (f *fixture) form(title string) AnnouncementForm {
	return AnnouncementForm{
		Title:       title,
		Description: "Malo rabljen",
		Price:       "149.90",
		CategoryID:  f.category.ID,
	}
}

func testPNG(t *testing.T) *bytes.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	img.Set(1, 1, color.RGBA{200, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}
