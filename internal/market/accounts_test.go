package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, RegisterForm{Username: "cvetka", Password: "dolgogeslo", RepeatPassword: "dolgogeslo"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)

	p, err := store.GetProfile(ctx, f.svc.DB, u.ID)
	require.NoError(t, err)
	require.NotNil(t, p, "every user has a profile right after registration")

	logged, err := f.svc.Authenticate(ctx, "cvetka", "dolgogeslo")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	_, err = f.svc.Authenticate(ctx, "cvetka", "napacno")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Authenticate(ctx, "nihce", "dolgogeslo")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		form  RegisterForm
		field string
	}{
		{"mismatch", RegisterForm{Username: "cvetka", Password: "dolgogeslo", RepeatPassword: "drugogeslo"}, "repeat_password"},
		{"short", RegisterForm{Username: "cvetka", Password: "kratko", RepeatPassword: "kratko"}, "password"},
		{"no username", RegisterForm{Password: "dolgogeslo", RepeatPassword: "dolgogeslo"}, "username"},
		{"taken", RegisterForm{Username: "ana", Password: "dolgogeslo", RepeatPassword: "dolgogeslo"}, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.form)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	u, err := store.GetUserByUsername(ctx, f.svc.DB, "cvetka")
	require.NoError(t, err)
	assert.Nil(t, u, "failed registrations must not create users")
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	form := ProfileForm{
		FirstName: "Ana",
		LastName:  "Novak",
		Email:     "ana@example.com",
		City:      "Ljubljana",
		Street:    "Trubarjeva 1",
		ZipCode:   "1000",
		Phone:     "+38640123456",
	}
	require.NoError(t, f.svc.UpdateProfile(ctx, f.owner, form))

	u, p, err := f.svc.Profile(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, "Novak", u.LastName)
	assert.Equal(t, "Ljubljana", p.City)
	assert.Equal(t, "+38640123456", p.Phone)

	// The same phone on another profile is a field error.
	err = f.svc.UpdateProfile(ctx, f.buyer, ProfileForm{Phone: "+38640123456"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Contains(t, verr.Fields, "phone")

	// Format checks.
	err = f.svc.UpdateProfile(ctx, f.buyer, ProfileForm{Email: "ni-naslov", ZipCode: "1234567", Phone: "040 123 456"})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "zip_code")
	assert.Contains(t, verr.Fields, "phone")

	assert.ErrorIs(t, f.svc.UpdateProfile(ctx, nil, form), ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, f.owner, PasswordForm{Current: "narobe123", New: "novogeslo1", RepeatPassword: "novogeslo1"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "current_password")

	require.NoError(t, f.svc.ChangePassword(ctx, f.owner, PasswordForm{Current: "geslo1234", New: "novogeslo1", RepeatPassword: "novogeslo1"}))
	_, err = f.svc.Authenticate(ctx, "ana", "novogeslo1")
	assert.NoError(t, err)
}

func TestUsersAndRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Users(ctx, f.owner)
	assert.ErrorIs(t, err, ErrForbidden)

	users, err := f.svc.Users(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	require.NoError(t, f.svc.SetRole(ctx, f.admin, f.owner.ID, model.RoleAdmin))
	u, _ := store.GetUser(ctx, f.svc.DB, f.owner.ID)
	assert.Equal(t, model.RoleAdmin, u.Role)

	var verr *ValidationError
	assert.True(t, errors.As(f.svc.SetRole(ctx, f.admin, f.admin.ID, model.RoleUser), &verr))
	assert.True(t, errors.As(f.svc.SetRole(ctx, f.admin, f.buyer.ID, "boss"), &verr))
	assert.ErrorIs(t, f.svc.SetRole(ctx, f.admin, 9999, model.RoleUser), ErrNotFound)
	assert.ErrorIs(t, f.svc.SetRole(ctx, f.buyer, f.owner.ID, model.RoleUser), ErrForbidden)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.CreateAnnouncement(ctx, f.owner, f.form("Kolo"), testPNG(t))
	require.NoError(t, err)
	require.NotEmpty(t, a.Image)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, nil, f.owner.ID), ErrUnauthorized)
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, f.buyer, f.owner.ID), ErrForbidden)
	var verr *ValidationError
	assert.True(t, errors.As(f.svc.DeleteUser(ctx, f.admin, f.admin.ID), &verr))
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, f.admin, 9999), ErrNotFound)

	require.NoError(t, f.svc.DeleteUser(ctx, f.admin, f.owner.ID))

	u, err := store.GetUser(ctx, f.svc.DB, f.owner.ID)
	require.NoError(t, err)
	assert.Nil(t, u)
	got, err := store.GetAnnouncement(ctx, f.svc.DB, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "announcements are deleted with their owner")
	assertImageGone(t, f, a.Image)

	users, err := f.svc.Users(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestCategoriesAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCategory(ctx, f.owner, "Knjige")
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := f.svc.CreateCategory(ctx, f.admin, "  Knjige ")
	require.NoError(t, err)
	assert.Equal(t, "Knjige", c.Name)

	var verr *ValidationError
	_, err = f.svc.CreateCategory(ctx, f.admin, "Elektronika")
	assert.True(t, errors.As(err, &verr), "duplicate name")
	_, err = f.svc.CreateCategory(ctx, f.admin, "")
	assert.True(t, errors.As(err, &verr), "empty name")

	require.NoError(t, f.svc.RenameCategory(ctx, f.admin, c.ID, "Knjige in revije"))
	assert.True(t, errors.As(f.svc.RenameCategory(ctx, f.admin, c.ID, "Elektronika"), &verr))
	assert.ErrorIs(t, f.svc.RenameCategory(ctx, f.admin, 9999, "Nekaj"), ErrNotFound)
}
