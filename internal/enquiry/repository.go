package enquiry

import (
	"database/sql"
	"fmt"
)

// Repository is the SQLite-backed Store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an enquiry repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// Add creates a new enquiry on a listing.
func (r *Repository) Add(listingID, name, contact, message string) (*Enquiry, error) {
	if name == "" {
		return nil, fmt.Errorf("enquiry name is required")
	}
	if message == "" {
		return nil, fmt.Errorf("enquiry message is required")
	}

	result, err := r.db.Exec(
		"INSERT INTO enquiries (listing_id, name, contact, message) VALUES (?, ?, ?, ?)",
		listingID, name, contact, message,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting enquiry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var e Enquiry
	err = r.db.QueryRow(
		"SELECT id, listing_id, name, contact, message, created_at FROM enquiries WHERE id = ?", id,
	).Scan(&e.ID, &e.ListingID, &e.Name, &e.Contact, &e.Message, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back enquiry: %w", err)
	}

	return &e, nil
}

// ListByListingID returns all enquiries for a listing, newest first.
func (r *Repository) ListByListingID(listingID string) ([]*Enquiry, error) {
	rows, err := r.db.Query(
		"SELECT id, listing_id, name, contact, message, created_at FROM enquiries WHERE listing_id = ? ORDER BY id DESC",
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing enquiries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

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
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM enquiries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting enquiry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("enquiry %d not found", id)
	}

	return nil
}
