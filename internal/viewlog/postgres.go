package viewlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pgOpTimeout = 5 * time.Second

// PostgresRecorder is the Postgres-backed Recorder.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a view log on an existing pool.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

var _ Recorder = (*PostgresRecorder)(nil)

// Record appends a view event and increments the listing's views_count
// in one transaction.
func (r *PostgresRecorder) Record(listingID string, source Source) error {
	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		"UPDATE listings SET views_count = views_count + 1 WHERE id = $1", listingID)
	if err != nil {
		return fmt.Errorf("incrementing views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found", listingID)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO view_events (listing_id, source) VALUES ($1, $2)",
		listingID, string(source),
	); err != nil {
		return fmt.Errorf("inserting view event: %w", err)
	}

	return tx.Commit(ctx)
}

// ListByListingID returns the recorded views for a listing, newest first.
func (r *PostgresRecorder) ListByListingID(listingID string) ([]*Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		"SELECT id, listing_id, source, viewed_at FROM view_events WHERE listing_id = $1 ORDER BY id DESC",
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing view events: %w", err)
	}
	defer rows.Close()

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
