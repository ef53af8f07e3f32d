package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oglasnik/internal/model"
)

// ReserveAnnouncement marks an accepted announcement as reserved and records
// the reservation in a single transaction. Returns ErrNotFound if the
// announcement does not exist and ErrStatusChanged if it is not accepted, so
// two concurrent reservations cannot both succeed.
func ReserveAnnouncement(ctx context.Context, db *sql.DB, announcementID, userID int64) (*model.Reservation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := transition(ctx, tx, announcementID, model.StatusReserved, model.StatusAccepted); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (announcement_id, user_id) VALUES (?, ?)`,
		announcementID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting reservation id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reservation: %w", err)
	}

	return GetReservation(ctx, db, id)
}

// GetReservation returns a reservation by ID.
func GetReservation(ctx context.Context, db *sql.DB, id int64) (*model.Reservation, error) {
	r := &model.Reservation{}
	err := db.QueryRowContext(ctx,
		`SELECT r.id, r.announcement_id, r.user_id, r.created_at, a.title, a.status
		 FROM reservations r
		 JOIN announcements a ON a.id = r.announcement_id
		 WHERE r.id = ?`, id,
	).Scan(&r.ID, &r.AnnouncementID, &r.UserID, &r.CreatedAt, &r.AnnouncementTitle, &r.AnnouncementStatus)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}
	return r, nil
}

// ListReservations returns reservations, optionally filtered by the
// reserving user or the announcement.
func ListReservations(ctx context.Context, db *sql.DB, userID, announcementID int64) ([]model.Reservation, error) {
	query := `SELECT r.id, r.announcement_id, r.user_id, r.created_at, a.title, a.status
	          FROM reservations r
	          JOIN announcements a ON a.id = r.announcement_id
	          WHERE 1=1`
	var args []any

	if userID > 0 {
		query += ` AND r.user_id = ?`
		args = append(args, userID)
	}
	if announcementID > 0 {
		query += ` AND r.announcement_id = ?`
		args = append(args, announcementID)
	}

	query += ` ORDER BY r.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.AnnouncementID, &r.UserID, &r.CreatedAt, &r.AnnouncementTitle, &r.AnnouncementStatus); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}
