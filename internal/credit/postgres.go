package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgOpTimeout = 5 * time.Second

// PostgresLedger is the Postgres-backed Service.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger creates a credit ledger on an existing pool.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

var _ Service = (*PostgresLedger)(nil)

func pgCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), pgOpTimeout)
}

// GetBalance returns the owner's balance; missing rows read as zero.
func (l *PostgresLedger) GetBalance(ownerID string) (Balance, error) {
	ctx, cancel := pgCtx()
	defer cancel()

	b := Balance{OwnerID: ownerID}
	err := l.pool.QueryRow(ctx,
		"SELECT listing_credits, boosting_credits FROM credit_balances WHERE owner_id = $1",
		ownerID,
	).Scan(&b.ListingCredits, &b.BoostingCredits)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, nil
	}
	if err != nil {
		return Balance{}, fmt.Errorf("querying balance for %s: %w", ownerID, err)
	}
	return b, nil
}

// Decrement consumes amount credits from the named field and appends a
// transaction. Fails with ErrInsufficient if the balance cannot cover it.
func (l *PostgresLedger) Decrement(ownerID string, field Field, amount int) error {
	if !ValidField(string(field)) {
		return fmt.Errorf("invalid credit field: %s", field)
	}
	if amount <= 0 {
		return fmt.Errorf("decrement amount must be positive, got %d", amount)
	}

	ctx, cancel := pgCtx()
	defer cancel()

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		fmt.Sprintf("UPDATE credit_balances SET %s = %s - $1, updated_at = $2 WHERE owner_id = $3 AND %s >= $1",
			field, field, field),
		amount, time.Now().UTC(), ownerID,
	)
	if err != nil {
		return fmt.Errorf("decrementing %s: %w", field, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s for %s", ErrInsufficient, field, ownerID)
	}

	if err := pgAppendTransaction(ctx, tx, ownerID, field, -amount, "consumed"); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Grant adds amount credits to the named field, creating the ledger row
// if needed, and appends a transaction.
func (l *PostgresLedger) Grant(ownerID string, field Field, amount int, reason string) error {
	if !ValidField(string(field)) {
		return fmt.Errorf("invalid credit field: %s", field)
	}
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}

	ctx, cancel := pgCtx()
	defer cancel()

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := pgGrantInTx(ctx, tx, ownerID, field, amount, reason); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Request records an agent's ask for more credits, pending review.
func (l *PostgresLedger) Request(ownerID string, field Field, amount int) (*Request, error) {
	if !ValidField(string(field)) {
		return nil, fmt.Errorf("invalid credit field: %s", field)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("requested amount must be positive, got %d", amount)
	}

	ctx, cancel := pgCtx()
	defer cancel()

	id := uuid.NewString()
	_, err := l.pool.Exec(ctx,
		"INSERT INTO credit_requests (id, owner_id, field, amount, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		id, ownerID, string(field), amount, string(RequestPending), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting credit request: %w", err)
	}

	return l.GetRequest(id)
}

// GetRequest returns a credit request by id.
func (l *PostgresLedger) GetRequest(id string) (*Request, error) {
	ctx, cancel := pgCtx()
	defer cancel()

	row := l.pool.QueryRow(ctx,
		"SELECT id, owner_id, field, amount, status, reviewed_by, created_at, reviewed_at FROM credit_requests WHERE id = $1",
		id,
	)
	req, err := scanPGRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("credit request %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying credit request %s: %w", id, err)
	}
	return req, nil
}

// ListRequests returns requests with the given status, newest first.
// An empty status returns all requests.
func (l *PostgresLedger) ListRequests(status RequestStatus) ([]*Request, error) {
	ctx, cancel := pgCtx()
	defer cancel()

	query := "SELECT id, owner_id, field, amount, status, reviewed_by, created_at, reviewed_at FROM credit_requests"
	var args []interface{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing credit requests: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		req, err := scanPGRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credit request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credit requests: %w", err)
	}

	return requests, nil
}

// Approve marks a pending request approved and grants its amount in the
// same transaction.
func (l *PostgresLedger) Approve(id, reviewer string) (*Request, error) {
	if err := l.review(id, reviewer, RequestApproved); err != nil {
		return nil, err
	}
	return l.GetRequest(id)
}

// Reject marks a pending request rejected. No credits move.
func (l *PostgresLedger) Reject(id, reviewer string) (*Request, error) {
	if err := l.review(id, reviewer, RequestRejected); err != nil {
		return nil, err
	}
	return l.GetRequest(id)
}

// History returns the owner's ledger movements, newest first.
func (l *PostgresLedger) History(ownerID string) ([]*Transaction, error) {
	ctx, cancel := pgCtx()
	defer cancel()

	rows, err := l.pool.Query(ctx,
		"SELECT id, owner_id, field, delta, balance_after, reason, created_at FROM credit_transactions WHERE owner_id = $1 ORDER BY id DESC",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txns []*Transaction
	for rows.Next() {
		var t Transaction
		var field string
		if err := rows.Scan(&t.ID, &t.OwnerID, &field, &t.Delta, &t.BalanceAfter, &t.Reason, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.Field = Field(field)
		txns = append(txns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txns, nil
}

func (l *PostgresLedger) review(id, reviewer string, verdict RequestStatus) error {
	ctx, cancel := pgCtx()
	defer cancel()

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		"SELECT id, owner_id, field, amount, status, reviewed_by, created_at, reviewed_at FROM credit_requests WHERE id = $1 FOR UPDATE",
		id,
	)
	req, err := scanPGRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("credit request %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("querying credit request %s: %w", id, err)
	}
	if req.Status != RequestPending {
		return fmt.Errorf("credit request %s already %s", id, req.Status)
	}

	_, err = tx.Exec(ctx,
		"UPDATE credit_requests SET status = $1, reviewed_by = $2, reviewed_at = $3 WHERE id = $4",
		string(verdict), reviewer, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating credit request: %w", err)
	}

	if verdict == RequestApproved {
		reason := fmt.Sprintf("request %s approved by %s", id, reviewer)
		if err := pgGrantInTx(ctx, tx, req.OwnerID, req.Field, req.Amount, reason); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func pgGrantInTx(ctx context.Context, tx pgx.Tx, ownerID string, field Field, amount int, reason string) error {
	_, err := tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO credit_balances (owner_id, %s, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (owner_id) DO UPDATE SET %s = credit_balances.%s + excluded.%s, updated_at = excluded.updated_at`,
			field, field, field, field),
		ownerID, amount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("granting %s: %w", field, err)
	}

	return pgAppendTransaction(ctx, tx, ownerID, field, amount, reason)
}

func pgAppendTransaction(ctx context.Context, tx pgx.Tx, ownerID string, field Field, delta int, reason string) error {
	var after int
	err := tx.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM credit_balances WHERE owner_id = $1", field),
		ownerID,
	).Scan(&after)
	if err != nil {
		return fmt.Errorf("reading balance after movement: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO credit_transactions (owner_id, field, delta, balance_after, reason, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		ownerID, string(field), delta, after, reason, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording transaction: %w", err)
	}
	return nil
}

// scanPGRequest scans a credit request from a pgx row.
func scanPGRequest(row interface{ Scan(...interface{}) error }) (*Request, error) {
	var req Request
	var field, status string
	var reviewedAt *time.Time

	err := row.Scan(&req.ID, &req.OwnerID, &field, &req.Amount, &status, &req.ReviewedBy, &req.CreatedAt, &reviewedAt)
	if err != nil {
		return nil, err
	}

	req.Field = Field(field)
	req.Status = RequestStatus(status)
	req.ReviewedAt = reviewedAt
	return &req, nil
}
