package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id            TEXT    PRIMARY KEY,
		owner_id      TEXT    NOT NULL,
		title         TEXT    NOT NULL,
		description   TEXT    NOT NULL DEFAULT '',
		property_type TEXT    NOT NULL,
		listing_type  TEXT    NOT NULL,
		price         INTEGER NOT NULL DEFAULT 0 CHECK (price >= 0),
		bedrooms      INTEGER NOT NULL DEFAULT 0,
		bathrooms     INTEGER NOT NULL DEFAULT 0,
		area_sqft     REAL    NOT NULL,
		address       TEXT    NOT NULL DEFAULT '',
		city          TEXT    NOT NULL DEFAULT '',
		state         TEXT    NOT NULL DEFAULT '',
		postal_code   TEXT    NOT NULL DEFAULT '',
		amenities     TEXT    NOT NULL DEFAULT '[]',
		image_urls    TEXT    NOT NULL DEFAULT '[]',
		status        TEXT    NOT NULL DEFAULT 'pending',
		is_featured   INTEGER NOT NULL DEFAULT 0,
		views_count   INTEGER NOT NULL DEFAULT 0,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
	`CREATE TABLE IF NOT EXISTS credit_balances (
		owner_id         TEXT    PRIMARY KEY,
		listing_credits  INTEGER NOT NULL DEFAULT 0 CHECK (listing_credits >= 0),
		boosting_credits INTEGER NOT NULL DEFAULT 0 CHECK (boosting_credits >= 0),
		updated_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS credit_requests (
		id          TEXT    PRIMARY KEY,
		owner_id    TEXT    NOT NULL,
		field       TEXT    NOT NULL,
		amount      INTEGER NOT NULL CHECK (amount > 0),
		status      TEXT    NOT NULL DEFAULT 'pending',
		reviewed_by TEXT    NOT NULL DEFAULT '',
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		reviewed_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS credit_transactions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id      TEXT    NOT NULL,
		field         TEXT    NOT NULL,
		delta         INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		reason        TEXT    NOT NULL DEFAULT '',
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS view_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id TEXT    NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		viewed_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS enquiries (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id TEXT    NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		name       TEXT    NOT NULL,
		message    TEXT    NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"view_events", "source", "TEXT NOT NULL DEFAULT ''"},
		{"enquiries", "contact", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return nil // column already exists
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
