package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/oglasnik/internal/model"
)

const announcementSelect = `SELECT a.id, a.title, a.description, a.price, a.category_id, a.owner_id,
	       a.status, a.image, a.created_at, a.updated_at,
	       c.name AS category_name, u.username AS owner_username
	FROM announcements a
	JOIN categories c ON c.id = a.category_id
	JOIN users u ON u.id = a.owner_id`

// AnnouncementFilter narrows ListAnnouncements. Zero values mean "any".
type AnnouncementFilter struct {
	Status     model.Status
	CategoryID int64
	OwnerID    int64

	// Newest orders by creation time, most recent first. Otherwise rows are
	// ordered by ID.
	Newest bool
}

// CreateAnnouncement creates a new announcement in status new.
func CreateAnnouncement(ctx context.Context, db *sql.DB, ownerID, categoryID int64, title, description string, price decimal.Decimal, image string) (*model.Announcement, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO announcements (title, description, price, category_id, owner_id, status, image)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, description, price.StringFixed(2), categoryID, ownerID, int(model.StatusNew), image,
	)
	if err != nil {
		return nil, fmt.Errorf("creating announcement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting announcement id: %w", err)
	}

	return GetAnnouncement(ctx, db, id)
}

// GetAnnouncement returns an announcement by ID.
func GetAnnouncement(ctx context.Context, db *sql.DB, id int64) (*model.Announcement, error) {
	a, err := scanAnnouncement(db.QueryRowContext(ctx, announcementSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting announcement: %w", err)
	}
	return a, nil
}

// ListAnnouncements returns announcements matching the filter.
func ListAnnouncements(ctx context.Context, db *sql.DB, f AnnouncementFilter) ([]model.Announcement, error) {
	var where []string
	var args []any

	if f.Status != 0 {
		where = append(where, `a.status = ?`)
		args = append(args, int(f.Status))
	}
	if f.CategoryID > 0 {
		where = append(where, `a.category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.OwnerID > 0 {
		where = append(where, `a.owner_id = ?`)
		args = append(args, f.OwnerID)
	}

	query := announcementSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	if f.Newest {
		query += ` ORDER BY a.created_at DESC, a.id DESC`
	} else {
		query += ` ORDER BY a.id`
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing announcements: %w", err)
	}
	defer rows.Close()

	var announcements []model.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning announcement: %w", err)
		}
		announcements = append(announcements, *a)
	}
	return announcements, rows.Err()
}

// UpdateAnnouncement updates an announcement's content. The status is not
// touched. An empty image keeps the current one.
func UpdateAnnouncement(ctx context.Context, db *sql.DB, id, categoryID int64, title, description string, price decimal.Decimal, image string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE announcements
		 SET title = ?, description = ?, price = ?, category_id = ?,
		     image = CASE WHEN ? = '' THEN image ELSE ? END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, description, price.StringFixed(2), categoryID, image, image, id,
	)
	if err != nil {
		return fmt.Errorf("updating announcement: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAnnouncement deletes an announcement and, by cascade, its reservations.
func DeleteAnnouncement(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM announcements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting announcement: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAnnouncementStatus moves an announcement to status to, provided its
// current status is one of from.
func SetAnnouncementStatus(ctx context.Context, db *sql.DB, id int64, to model.Status, from ...model.Status) error {
	return transition(ctx, db, id, to, from...)
}

// transition performs a conditional status update. It returns ErrNotFound if
// the announcement does not exist and ErrStatusChanged if its status is not
// one of from.
func transition(ctx context.Context, q querier, id int64, to model.Status, from ...model.Status) error {
	if len(from) == 0 {
		return fmt.Errorf("transition to %s: no prior status given", to)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	args := []any{int(to), id}
	for _, s := range from {
		args = append(args, int(s))
	}

	result, err := q.ExecContext(ctx,
		`UPDATE announcements SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating announcement status: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}

	var exists int
	err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM announcements WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking announcement: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrStatusChanged
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnouncement(row rowScanner) (*model.Announcement, error) {
	a := &model.Announcement{}
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Price, &a.CategoryID, &a.OwnerID,
		&a.Status, &a.Image, &a.CreatedAt, &a.UpdatedAt,
		&a.CategoryName, &a.OwnerUsername)
	if err != nil {
		return nil, err
	}
	return a, nil
}
