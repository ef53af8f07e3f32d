package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/oglasnik/internal/model"
	"github.com/erazemk/oglasnik/internal/store"
)

// CreateCategory adds a category. Administrators only.
func (s *Service) CreateCategory(ctx context.Context, actor *Actor, name string) (*model.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := checkCategoryName(name); err != nil {
		return nil, err
	}

	c, err := store.CreateCategory(ctx, s.DB, name)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, fieldError("name", "Kategorija s tem imenom že obstaja.")
	}
	if err != nil {
		return nil, err
	}

	slog.Info("category created", "category", c.Name, "admin", actor.Username)
	return c, nil
}

// RenameCategory renames a category. Administrators only.
func (s *Service) RenameCategory(ctx context.Context, actor *Actor, id int64, name string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := checkCategoryName(name); err != nil {
		return err
	}

	err := store.RenameCategory(ctx, s.DB, id, name)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return fieldError("name", "Kategorija s tem imenom že obstaja.")
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	case err != nil:
		return err
	}

	slog.Info("category renamed", "category", id, "name", name, "admin", actor.Username)
	return nil
}

func checkCategoryName(name string) error {
	if err := validate.Var(name, "required,max=64"); err != nil {
		if name == "" {
			return fieldError("name", "To polje je obvezno.")
		}
		return fieldError("name", "Največ 64 znakov.")
	}
	return nil
}
