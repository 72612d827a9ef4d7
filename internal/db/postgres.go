package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pgMigrations mirrors the SQLite schema for Postgres deployments.
var pgMigrations = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id            TEXT    PRIMARY KEY,
		owner_id      TEXT    NOT NULL,
		title         TEXT    NOT NULL,
		description   TEXT    NOT NULL DEFAULT '',
		property_type TEXT    NOT NULL,
		listing_type  TEXT    NOT NULL,
		price         BIGINT  NOT NULL DEFAULT 0 CHECK (price >= 0),
		bedrooms      INT     NOT NULL DEFAULT 0,
		bathrooms     INT     NOT NULL DEFAULT 0,
		area_sqft     DOUBLE PRECISION NOT NULL,
		address       TEXT    NOT NULL DEFAULT '',
		city          TEXT    NOT NULL DEFAULT '',
		state         TEXT    NOT NULL DEFAULT '',
		postal_code   TEXT    NOT NULL DEFAULT '',
		amenities     TEXT[]  NOT NULL DEFAULT '{}',
		image_urls    TEXT[]  NOT NULL DEFAULT '{}',
		status        TEXT    NOT NULL DEFAULT 'pending',
		is_featured   BOOLEAN NOT NULL DEFAULT FALSE,
		views_count   BIGINT  NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
	`CREATE TABLE IF NOT EXISTS credit_balances (
		owner_id         TEXT PRIMARY KEY,
		listing_credits  INT  NOT NULL DEFAULT 0 CHECK (listing_credits >= 0),
		boosting_credits INT  NOT NULL DEFAULT 0 CHECK (boosting_credits >= 0),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS credit_requests (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		field       TEXT NOT NULL,
		amount      INT  NOT NULL CHECK (amount > 0),
		status      TEXT NOT NULL DEFAULT 'pending',
		reviewed_by TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		reviewed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS credit_transactions (
		id            BIGSERIAL PRIMARY KEY,
		owner_id      TEXT NOT NULL,
		field         TEXT NOT NULL,
		delta         INT  NOT NULL,
		balance_after INT  NOT NULL,
		reason        TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS view_events (
		id         BIGSERIAL PRIMARY KEY,
		listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		source     TEXT NOT NULL DEFAULT '',
		viewed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS enquiries (
		id         BIGSERIAL PRIMARY KEY,
		listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		contact    TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// OpenPostgres connects a pgx pool to connString, verifies the
// connection, and runs migrations.
func OpenPostgres(connString string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	for i, m := range pgMigrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migration %d: %w", i, err)
		}
	}

	return pool, nil
}
