package viewlog

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Repository is the SQLite-backed Recorder.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a view log repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Recorder = (*Repository)(nil)

// Record appends a view event and increments the listing's views_count
// in one transaction.
func (r *Repository) Record(listingID string, source Source) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			slog.Warn("rolling back transaction", "error", rerr)
		}
	}()

	result, err := tx.Exec(
		"UPDATE listings SET views_count = views_count + 1 WHERE id = ?", listingID,
	)
	if err != nil {
		return fmt.Errorf("incrementing views: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing %s not found", listingID)
	}

	if _, err := tx.Exec(
		"INSERT INTO view_events (listing_id, source) VALUES (?, ?)",
		listingID, string(source),
	); err != nil {
		return fmt.Errorf("inserting view event: %w", err)
	}

	return tx.Commit()
}

// ListByListingID returns the recorded views for a listing, newest first.
func (r *Repository) ListByListingID(listingID string) ([]*Event, error) {
	rows, err := r.db.Query(
		"SELECT id, listing_id, source, viewed_at FROM view_events WHERE listing_id = ? ORDER BY id DESC",
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing view events: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var events []*Event
	for rows.Next() {
		var e Event
		var source string
		if err := rows.Scan(&e.ID, &e.ListingID, &source, &e.ViewedAt); err != nil {
			return nil, fmt.Errorf("scanning view event: %w", err)
		}
		e.Source = Source(source)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating view events: %w", err)
	}

	return events, nil
}
