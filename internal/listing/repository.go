package listing

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository is the SQLite-backed Store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

const selectColumns = `id, owner_id, title, description, property_type, listing_type, price,
	bedrooms, bathrooms, area_sqft, address, city, state, postal_code,
	amenities, image_urls, status, is_featured, views_count, created_at, updated_at`

const insertSQL = `INSERT INTO listings
	(id, owner_id, title, description, property_type, listing_type, price,
	bedrooms, bathrooms, area_sqft, address, city, state, postal_code,
	amenities, image_urls, status, is_featured, views_count, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Insert adds a new listing, assigning its id and timestamps, and
// returns the stored row.
func (r *Repository) Insert(l *Listing) (*Listing, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	amenities, err := json.Marshal(emptyIfNil(l.Amenities))
	if err != nil {
		return nil, fmt.Errorf("encoding amenities: %w", err)
	}
	images, err := json.Marshal(emptyIfNil(l.ImageURLs))
	if err != nil {
		return nil, fmt.Errorf("encoding image urls: %w", err)
	}

	status := l.Status
	if status == "" {
		status = StatusPending
	}

	_, err = r.db.Exec(insertSQL,
		id, l.OwnerID, l.Title, l.Description, l.PropertyType, l.ListingType, l.Price,
		l.Bedrooms, l.Bathrooms, l.AreaSqft, l.Address, l.City, l.State, l.PostalCode,
		string(amenities), string(images), string(status), l.IsFeatured, l.ViewsCount, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting listing: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a listing by its id.
func (r *Repository) GetByID(id string) (*Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("listing %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %s: %w", id, err)
	}

	return l, nil
}

// Query returns listings matching f, newest first.
func (r *Repository) Query(f QueryFilter) ([]*Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings", selectColumns)
	var args []interface{}
	var conditions []string

	if f.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(f.Status))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var listings []*Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}

	return listings, nil
}

// Update applies the non-nil fields of p to the listing with id.
func (r *Repository) Update(id string, p Patch) error {
	sets, args := patchClauses(p)
	if len(sets) == 0 {
		return fmt.Errorf("empty patch for listing %s", id)
	}
	args = append(args, id)

	result, err := r.db.Exec(
		fmt.Sprintf("UPDATE listings SET %s WHERE id = ?", strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing %s not found", id)
	}

	return nil
}

// UpdateMany applies the non-nil fields of p to every listed id as one
// statement.
func (r *Repository) UpdateMany(ids []string, p Patch) error {
	if len(ids) == 0 {
		return nil
	}
	sets, args := patchClauses(p)
	if len(sets) == 0 {
		return fmt.Errorf("empty patch")
	}
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := r.db.Exec(
		fmt.Sprintf("UPDATE listings SET %s WHERE id IN (%s)",
			strings.Join(sets, ", "), placeholders(len(ids))),
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating listings: %w", err)
	}
	return nil
}

// Delete removes a listing by id. Enquiries and view events cascade.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing %s not found", id)
	}

	return nil
}

// DeleteMany removes every listed id as one statement. Missing ids are
// not an error.
func (r *Repository) DeleteMany(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := r.db.Exec(
		fmt.Sprintf("DELETE FROM listings WHERE id IN (%s)", placeholders(len(ids))),
		args...,
	)
	if err != nil {
		return fmt.Errorf("deleting listings: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter by one.
func (r *Repository) IncrementViews(id string) error {
	result, err := r.db.Exec(
		"UPDATE listings SET views_count = views_count + 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("incrementing views: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing %s not found", id)
	}

	return nil
}

// scanListing scans a listing from a database row.
func scanListing(row interface{ Scan(...interface{}) error }) (*Listing, error) {
	var l Listing
	var amenities, images, status string
	var featured int

	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.PropertyType, &l.ListingType, &l.Price,
		&l.Bedrooms, &l.Bathrooms, &l.AreaSqft, &l.Address, &l.City, &l.State, &l.PostalCode,
		&amenities, &images, &status, &featured, &l.ViewsCount, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Status = Status(status)
	l.IsFeatured = featured != 0
	if err := json.Unmarshal([]byte(amenities), &l.Amenities); err != nil {
		return nil, fmt.Errorf("decoding amenities: %w", err)
	}
	if err := json.Unmarshal([]byte(images), &l.ImageURLs); err != nil {
		return nil, fmt.Errorf("decoding image urls: %w", err)
	}

	return &l, nil
}

// patchClauses turns a Patch into SET clauses and their arguments.
// updated_at is always touched.
func patchClauses(p Patch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *p.Price)
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.IsFeatured != nil {
		sets = append(sets, "is_featured = ?")
		args = append(args, *p.IsFeatured)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC())
	}

	return sets, args
}

// placeholders returns n comma-separated "?" marks.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
