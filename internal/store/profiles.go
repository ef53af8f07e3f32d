package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oglasnik/internal/model"
)

// GetProfile returns the profile of a user.
func GetProfile(ctx context.Context, db *sql.DB, userID int64) (*model.Profile, error) {
	p := &model.Profile{}
	var phone sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT user_id, city, street, zip_code, phone FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.City, &p.Street, &p.ZipCode, &phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	p.Phone = phone.String
	return p, nil
}

// UpdateAccount updates a user's personal data and profile in one transaction.
// An empty phone is stored as NULL so that it does not collide with other
// users without a phone. Returns ErrDuplicate if the phone is taken.
func UpdateAccount(ctx context.Context, db *sql.DB, user *model.User, profile *model.Profile) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, email = ? WHERE id = ?`,
		user.FirstName, user.LastName, user.Email, user.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	var phone any
	if profile.Phone != "" {
		phone = profile.Phone
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE profiles SET city = ?, street = ?, zip_code = ?, phone = ? WHERE user_id = ?`,
		profile.City, profile.Street, profile.ZipCode, phone, user.ID,
	)
	if isUniqueViolation(err, "profiles.phone") {
		return fmt.Errorf("updating profile: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing account update: %w", err)
	}
	return nil
}
