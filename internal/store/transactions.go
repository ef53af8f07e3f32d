package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oglasnik/internal/model"
)

// ConfirmAnnouncement marks a reserved announcement as sold and records a
// transaction between its owner and the buyer in a single transaction.
// Returns ErrNotFound if the announcement does not exist and
// ErrStatusChanged if it is not reserved.
func ConfirmAnnouncement(ctx context.Context, db *sql.DB, announcementID, buyerID int64) (*model.Transaction, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var sellerID int64
	err = tx.QueryRowContext(ctx,
		`SELECT owner_id FROM announcements WHERE id = ?`, announcementID,
	).Scan(&sellerID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting seller: %w", err)
	}

	if err := transition(ctx, tx, announcementID, model.StatusSold, model.StatusReserved); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (seller_id, buyer_id, announcement_id) VALUES (?, ?, ?)`,
		sellerID, buyerID, announcementID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting transaction id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return GetTransaction(ctx, db, id)
}

// GetTransaction returns a transaction by ID.
func GetTransaction(ctx context.Context, db *sql.DB, id int64) (*model.Transaction, error) {
	t := &model.Transaction{}
	err := db.QueryRowContext(ctx,
		`SELECT id, seller_id, buyer_id, announcement_id, created_at FROM transactions WHERE id = ?`, id,
	).Scan(&t.ID, &t.SellerID, &t.BuyerID, &t.AnnouncementID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns transactions where the user is seller or buyer.
// A zero userID lists all transactions.
func ListTransactions(ctx context.Context, db *sql.DB, userID int64) ([]model.Transaction, error) {
	query := `SELECT id, seller_id, buyer_id, announcement_id, created_at FROM transactions`
	var args []any
	if userID > 0 {
		query += ` WHERE seller_id = ? OR buyer_id = ?`
		args = append(args, userID, userID)
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.SellerID, &t.BuyerID, &t.AnnouncementID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
