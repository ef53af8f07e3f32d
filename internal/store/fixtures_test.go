package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/oglasnik/internal/model"
)

// seedAnnouncement creates a category, an owner and one announcement in the
// given status.
func seedAnnouncement(t *testing.T, database *sql.DB, status model.Status) (*model.Announcement, *model.User) {
	t.Helper()
	ctx := context.Background()

	owner, err := CreateUser(ctx, database, "seller", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	category, err := CreateCategory(ctx, database, "Elektronika")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	a, err := CreateAnnouncement(ctx, database, owner.ID, category.ID, "Telefon", "Malo rabljen", decimal.RequireFromString("300"), "")
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}
	if status != model.StatusNew {
		if err := SetAnnouncementStatus(ctx, database, a.ID, status, model.StatusNew); err != nil {
			t.Fatalf("SetAnnouncementStatus: %v", err)
		}
		a.Status = status
	}
	return a, owner
}
