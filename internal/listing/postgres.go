package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgOpTimeout bounds each store call; the orchestrator itself never
// cancels an action once started.
const pgOpTimeout = 5 * time.Second

// PostgresStore is the Postgres-backed Store, used when the record
// store is a shared server instead of a local SQLite file.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a listing store on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

const pgSelectColumns = `id, owner_id, title, description, property_type, listing_type, price,
	bedrooms, bathrooms, area_sqft, address, city, state, postal_code,
	amenities, image_urls, status, is_featured, views_count, created_at, updated_at`

func pgCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), pgOpTimeout)
}

// Insert adds a new listing, assigning its id and timestamps.
func (s *PostgresStore) Insert(l *Listing) (*Listing, error) {
	ctx, cancel := pgCtx()
	defer cancel()

	id := uuid.NewString()
	now := time.Now().UTC()

	status := l.Status
	if status == "" {
		status = StatusPending
	}

	query := fmt.Sprintf(`INSERT INTO listings
		(id, owner_id, title, description, property_type, listing_type, price,
		bedrooms, bathrooms, area_sqft, address, city, state, postal_code,
		amenities, image_urls, status, is_featured, views_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING %s`, pgSelectColumns)

	row := s.pool.QueryRow(ctx, query,
		id, l.OwnerID, l.Title, l.Description, l.PropertyType, l.ListingType, l.Price,
		l.Bedrooms, l.Bathrooms, l.AreaSqft, l.Address, l.City, l.State, l.PostalCode,
		emptyIfNil(l.Amenities), emptyIfNil(l.ImageURLs), string(status), l.IsFeatured, l.ViewsCount, now, now,
	)

	saved, err := scanPGListing(row)
	if err != nil {
		return nil, fmt.Errorf("inserting listing: %w", err)
	}
	return saved, nil
}

// GetByID returns a listing by its id.
func (s *PostgresStore) GetByID(id string) (*Listing, error) {
	ctx, cancel := pgCtx()
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = $1", pgSelectColumns)
	l, err := scanPGListing(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("listing %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %s: %w", id, err)
	}
	return l, nil
}

// Query returns listings matching f, newest first.
func (s *PostgresStore) Query(f QueryFilter) ([]*Listing, error) {
	ctx, cancel := pgCtx()
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM listings", pgSelectColumns)
	var args []interface{}
	var conditions []string

	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var listings []*Listing
	for rows.Next() {
		l, err := scanPGListing(rows)
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
func (s *PostgresStore) Update(id string, p Patch) error {
	ctx, cancel := pgCtx()
	defer cancel()

	sets, args := pgPatchClauses(p)
	if len(sets) == 0 {
		return fmt.Errorf("empty patch for listing %s", id)
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("UPDATE listings SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found", id)
	}
	return nil
}

// UpdateMany applies the non-nil fields of p to every listed id as one
// statement.
func (s *PostgresStore) UpdateMany(ids []string, p Patch) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := pgCtx()
	defer cancel()

	sets, args := pgPatchClauses(p)
	if len(sets) == 0 {
		return fmt.Errorf("empty patch")
	}
	args = append(args, ids)

	_, err := s.pool.Exec(ctx,
		fmt.Sprintf("UPDATE listings SET %s WHERE id = ANY($%d)", strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating listings: %w", err)
	}
	return nil
}

// Delete removes a listing by id. Enquiries and view events cascade.
func (s *PostgresStore) Delete(id string) error {
	ctx, cancel := pgCtx()
	defer cancel()

	tag, err := s.pool.Exec(ctx, "DELETE FROM listings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found", id)
	}
	return nil
}

// DeleteMany removes every listed id. Missing ids are not an error.
func (s *PostgresStore) DeleteMany(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := pgCtx()
	defer cancel()

	if _, err := s.pool.Exec(ctx, "DELETE FROM listings WHERE id = ANY($1)", ids); err != nil {
		return fmt.Errorf("deleting listings: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter by one.
func (s *PostgresStore) IncrementViews(id string) error {
	ctx, cancel := pgCtx()
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		"UPDATE listings SET views_count = views_count + 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("incrementing views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found", id)
	}
	return nil
}

// scanPGListing scans a listing from a pgx row. Amenities and image
// urls are native text arrays on Postgres.
func scanPGListing(row interface{ Scan(...interface{}) error }) (*Listing, error) {
	var l Listing
	var status string

	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.PropertyType, &l.ListingType, &l.Price,
		&l.Bedrooms, &l.Bathrooms, &l.AreaSqft, &l.Address, &l.City, &l.State, &l.PostalCode,
		&l.Amenities, &l.ImageURLs, &status, &l.IsFeatured, &l.ViewsCount, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Status = Status(status)
	return &l, nil
}

// pgPatchClauses turns a Patch into numbered SET clauses and arguments.
// updated_at is always touched.
func pgPatchClauses(p Patch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.IsFeatured != nil {
		add("is_featured", *p.IsFeatured)
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
	}

	return sets, args
}
