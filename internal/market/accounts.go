package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

// Register creates a user account and its profile.
func (s *Service) Register(ctx context.Context, form RegisterForm) (_ *model.User, err error) {
	ctx, end := startSpan(ctx, "market.Register")
	defer func() { end(err) }()

	if err := check(form); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u, err := store.CreateUser(ctx, s.DB, form.Username, string(hash), model.RoleUser)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, fieldError("username", "Uporabniško ime je že zasedeno.")
	}
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "user", u.Username)
	return u, nil
}

// Authenticate checks a username and password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := store.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// User returns the account of the actor. It fails with ErrUnauthorized when
// the account no longer exists.
func (s *Service) User(ctx context.Context, actor *Actor) (*model.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	u, err := store.GetUser(ctx, s.DB, actor.ID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// Profile returns the actor's account and profile.
func (s *Service) Profile(ctx context.Context, actor *Actor) (*model.User, *model.Profile, error) {
	u, err := s.User(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	p, err := store.GetProfile(ctx, s.DB, u.ID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, fmt.Errorf("profile of user %d: %w", u.ID, ErrNotFound)
	}
	return u, p, nil
}

// UpdateProfile stores the actor's personal data and profile.
func (s *Service) UpdateProfile(ctx context.Context, actor *Actor, form ProfileForm) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if err := check(form); err != nil {
		return err
	}

	u := &model.User{ID: actor.ID, FirstName: form.FirstName, LastName: form.LastName, Email: form.Email}
	p := &model.Profile{UserID: actor.ID, City: form.City, Street: form.Street, ZipCode: form.ZipCode, Phone: form.Phone}
	err := store.UpdateAccount(ctx, s.DB, u, p)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return fieldError("phone", "Ta telefonska številka je že v uporabi.")
	case errors.Is(err, store.ErrNotFound):
		return ErrUnauthorized
	case err != nil:
		return err
	}

	slog.Info("profile updated", "user", actor.Username)
	return nil
}

// ChangePassword replaces the actor's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, actor *Actor, form PasswordForm) error {
	u, err := s.User(ctx, actor)
	if err != nil {
		return err
	}
	if err := check(form); err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(form.Current)); err != nil {
		return fieldError("current_password", "Trenutno geslo ni pravilno.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.New), s.PasswordCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := store.UpdateUserPassword(ctx, s.DB, u.ID, string(hash)); err != nil {
		return err
	}

	slog.Info("user changed own password", "user", u.Username)
	return nil
}

// Users lists all accounts. Administrators only.
func (s *Service) Users(ctx context.Context, actor *Actor) ([]model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	list, err := store.ListUsers(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

// SetRole changes the role of another user. Administrators only.
func (s *Service) SetRole(ctx context.Context, actor *Actor, userID int64, role string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !model.ValidRole(role) {
		return fieldError("role", "Neznana vloga.")
	}
	if userID == actor.ID {
		return fieldError("role", "Svoje vloge ni mogoče spremeniti.")
	}

	err := store.UpdateUserRole(ctx, s.DB, userID, role)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	slog.Info("user role changed", "target", userID, "role", role, "admin", actor.Username)
	return nil
}

// DeleteUser deletes another user's account together with their profile,
// announcements, reservations and transactions. Announcement images are
// removed on a best-effort basis. Administrators only.
func (s *Service) DeleteUser(ctx context.Context, actor *Actor, userID int64) (err error) {
	ctx, end := startSpan(ctx, "market.DeleteUser")
	defer func() { end(err) }()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.ID {
		return fieldError("user", "Svojega računa ni mogoče izbrisati.")
	}

	owned, err := store.ListAnnouncements(ctx, s.DB, store.AnnouncementFilter{OwnerID: userID})
	if err != nil {
		return err
	}

	err = store.DeleteUser(ctx, s.DB, userID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	for _, a := range owned {
		s.removeImage(a.Image)
	}

	slog.Info("user deleted", "target", userID, "announcements", len(owned), "admin", actor.Username)
	return nil
}

func requireAdmin(actor *Actor) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
