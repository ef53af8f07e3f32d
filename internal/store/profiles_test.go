package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/oglasnik/internal/db"
	"github.com/erazemk/oglasnik/internal/model"
)

func TestUpdateAccount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "anna", "hash", model.RoleUser)
	user.FirstName = "Anna"
	user.Email = "anna@example.com"

	err := UpdateAccount(ctx, database, user, &model.Profile{City: "Ljubljana", ZipCode: "1000", Phone: "+38640123456"})
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.FirstName != "Anna" || got.Email != "anna@example.com" {
		t.Errorf("user not updated: %+v", got)
	}
	profile, _ := GetProfile(ctx, database, user.ID)
	if profile.City != "Ljubljana" || profile.Phone != "+38640123456" {
		t.Errorf("profile not updated: %+v", profile)
	}
}

func TestUpdateAccountDuplicatePhone(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateUser(ctx, database, "a", "hash", model.RoleUser)
	b, _ := CreateUser(ctx, database, "b", "hash", model.RoleUser)

	if err := UpdateAccount(ctx, database, a, &model.Profile{Phone: "+38640123456"}); err != nil {
		t.Fatalf("UpdateAccount a: %v", err)
	}

	b.FirstName = "Bob"
	err := UpdateAccount(ctx, database, b, &model.Profile{Phone: "+38640123456"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// The user update in the same transaction must be rolled back.
	got, _ := GetUser(ctx, database, b.ID)
	if got.FirstName != "" {
		t.Errorf("expected first name rollback, got %q", got.FirstName)
	}
}

func TestEmptyPhonesDoNotCollide(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateUser(ctx, database, "a", "hash", model.RoleUser)
	b, _ := CreateUser(ctx, database, "b", "hash", model.RoleUser)

	if err := UpdateAccount(ctx, database, a, &model.Profile{City: "Kranj"}); err != nil {
		t.Fatalf("UpdateAccount a: %v", err)
	}
	if err := UpdateAccount(ctx, database, b, &model.Profile{City: "Celje"}); err != nil {
		t.Fatalf("UpdateAccount b: %v", err)
	}
}
