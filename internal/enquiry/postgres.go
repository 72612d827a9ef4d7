package enquiry

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pgOpTimeout = 5 * time.Second

// PostgresStore is the Postgres-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates an enquiry store on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

// Add creates a new enquiry on a listing.
func (s *PostgresStore) Add(listingID, name, contact, message string) (*Enquiry, error) {
	if name == "" {
		return nil, fmt.Errorf("enquiry name is required")
	}
	if message == "" {
		return nil, fmt.Errorf("enquiry message is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()

	var e Enquiry
	err := s.pool.QueryRow(ctx,
		`INSERT INTO enquiries (listing_id, name, contact, message) VALUES ($1, $2, $3, $4)
		RETURNING id, listing_id, name, contact, message, created_at`,
		listingID, name, contact, message,
	).Scan(&e.ID, &e.ListingID, &e.Name, &e.Contact, &e.Message, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting enquiry: %w", err)
	}

	return &e, nil
}

// ListByListingID returns all enquiries for a listing, newest first.
func (s *PostgresStore) ListByListingID(listingID string) ([]*Enquiry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		"SELECT id, listing_id, name, contact, message, created_at FROM enquiries WHERE listing_id = $1 ORDER BY id DESC",
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing enquiries: %w", err)
	}
	defer rows.Close()

	var enquiries []*Enquiry
	for rows.Next() {
		var e Enquiry
		if err := rows.Scan(&e.ID, &e.ListingID, &e.Name, &e.Contact, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning enquiry: %w", err)
		}
		enquiries = append(enquiries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating enquiries: %w", err)
	}

	return enquiries, nil
}

// Delete removes an enquiry by ID.
func (s *PostgresStore) Delete(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, "DELETE FROM enquiries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting enquiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("enquiry %d not found", id)
	}
	return nil
}
