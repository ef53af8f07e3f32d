package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeSession records a session token ID as logged out until it expires.
func RevokeSession(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}

	if err := PurgeExpiredSessions(ctx, db, time.Now()); err != nil {
		return err
	}
	return nil
}

// PurgeExpiredSessions drops revocations whose tokens have expired anyway.
func PurgeExpiredSessions(ctx context.Context, db *sql.DB, now time.Time) error {
	_, err := db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return fmt.Errorf("purging revoked sessions: %w", err)
	}
	return nil
}

// IsSessionRevoked reports whether a session token ID has been logged out.
func IsSessionRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking session revocation: %w", err)
	}
	return count > 0, nil
}
