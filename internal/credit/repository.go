package credit

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrInsufficient is returned when a decrement would drive a counter
// below zero.
var ErrInsufficient = errors.New("insufficient credits")

// Repository is the SQLite-backed Ledger, plus the request/approval
// workflow and the transaction history.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a credit repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Service = (*Repository)(nil)

// GetBalance returns the owner's balance. An owner without a ledger row
// has a zero balance.
func (r *Repository) GetBalance(ownerID string) (Balance, error) {
	b := Balance{OwnerID: ownerID}
	err := r.db.QueryRow(
		"SELECT listing_credits, boosting_credits FROM credit_balances WHERE owner_id = ?",
		ownerID,
	).Scan(&b.ListingCredits, &b.BoostingCredits)
	if err == sql.ErrNoRows {
		return b, nil
	}
	if err != nil {
		return Balance{}, fmt.Errorf("querying balance for %s: %w", ownerID, err)
	}
	return b, nil
}

// Decrement consumes amount credits from the named field and appends a
// transaction. Fails with ErrInsufficient if the balance cannot cover it.
func (r *Repository) Decrement(ownerID string, field Field, amount int) error {
	if !ValidField(string(field)) {
		return fmt.Errorf("invalid credit field: %s", field)
	}
	if amount <= 0 {
		return fmt.Errorf("decrement amount must be positive, got %d", amount)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	result, err := tx.Exec(
		fmt.Sprintf("UPDATE credit_balances SET %s = %s - ?, updated_at = ? WHERE owner_id = ? AND %s >= ?",
			field, field, field),
		amount, time.Now().UTC(), ownerID, amount,
	)
	if err != nil {
		return fmt.Errorf("decrementing %s: %w", field, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s for %s", ErrInsufficient, field, ownerID)
	}

	if err := appendTransaction(tx, ownerID, field, -amount, "consumed"); err != nil {
		return err
	}

	return tx.Commit()
}

// Grant adds amount credits to the named field, creating the ledger row
// if needed, and appends a transaction.
func (r *Repository) Grant(ownerID string, field Field, amount int, reason string) error {
	if !ValidField(string(field)) {
		return fmt.Errorf("invalid credit field: %s", field)
	}
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	if err := grantInTx(tx, ownerID, field, amount, reason); err != nil {
		return err
	}

	return tx.Commit()
}

// Request records an agent's ask for more credits, pending review.
func (r *Repository) Request(ownerID string, field Field, amount int) (*Request, error) {
	if !ValidField(string(field)) {
		return nil, fmt.Errorf("invalid credit field: %s", field)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("requested amount must be positive, got %d", amount)
	}

	id := uuid.NewString()
	_, err := r.db.Exec(
		"INSERT INTO credit_requests (id, owner_id, field, amount, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, ownerID, string(field), amount, string(RequestPending), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting credit request: %w", err)
	}

	return r.GetRequest(id)
}

// GetRequest returns a credit request by id.
func (r *Repository) GetRequest(id string) (*Request, error) {
	row := r.db.QueryRow(
		"SELECT id, owner_id, field, amount, status, reviewed_by, created_at, reviewed_at FROM credit_requests WHERE id = ?",
		id,
	)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("credit request %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying credit request %s: %w", id, err)
	}
	return req, nil
}

// ListRequests returns requests with the given status, newest first.
// An empty status returns all requests.
func (r *Repository) ListRequests(status RequestStatus) ([]*Request, error) {
	query := "SELECT id, owner_id, field, amount, status, reviewed_by, created_at, reviewed_at FROM credit_requests"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing credit requests: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var requests []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
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
// same transaction. Reviewing a request twice fails.
func (r *Repository) Approve(id, reviewer string) (*Request, error) {
	if err := r.review(id, reviewer, RequestApproved); err != nil {
		return nil, err
	}
	return r.GetRequest(id)
}

// Reject marks a pending request rejected. No credits move.
func (r *Repository) Reject(id, reviewer string) (*Request, error) {
	if err := r.review(id, reviewer, RequestRejected); err != nil {
		return nil, err
	}
	return r.GetRequest(id)
}

// History returns the owner's ledger movements, newest first.
func (r *Repository) History(ownerID string) ([]*Transaction, error) {
	rows, err := r.db.Query(
		"SELECT id, owner_id, field, delta, balance_after, reason, created_at FROM credit_transactions WHERE owner_id = ? ORDER BY id DESC",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

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

// review transitions a pending request to verdict, granting credits on
// approval.
func (r *Repository) review(id, reviewer string, verdict RequestStatus) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	row := tx.QueryRow(
		"SELECT id, owner_id, field, amount, status, reviewed_by, created_at, reviewed_at FROM credit_requests WHERE id = ?",
		id,
	)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return fmt.Errorf("credit request %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("querying credit request %s: %w", id, err)
	}
	if req.Status != RequestPending {
		return fmt.Errorf("credit request %s already %s", id, req.Status)
	}

	_, err = tx.Exec(
		"UPDATE credit_requests SET status = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ?",
		string(verdict), reviewer, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating credit request: %w", err)
	}

	if verdict == RequestApproved {
		reason := fmt.Sprintf("request %s approved by %s", id, reviewer)
		if err := grantInTx(tx, req.OwnerID, req.Field, req.Amount, reason); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// grantInTx upserts the balance row, adds amount, and appends a
// transaction, all inside tx.
func grantInTx(tx *sql.Tx, ownerID string, field Field, amount int, reason string) error {
	_, err := tx.Exec(
		fmt.Sprintf(`INSERT INTO credit_balances (owner_id, %s, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(owner_id) DO UPDATE SET %s = %s + excluded.%s, updated_at = excluded.updated_at`,
			field, field, field, field),
		ownerID, amount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("granting %s: %w", field, err)
	}

	return appendTransaction(tx, ownerID, field, amount, reason)
}

// appendTransaction records a ledger movement with the post-movement
// counter value.
func appendTransaction(tx *sql.Tx, ownerID string, field Field, delta int, reason string) error {
	var after int
	err := tx.QueryRow(
		fmt.Sprintf("SELECT %s FROM credit_balances WHERE owner_id = ?", field),
		ownerID,
	).Scan(&after)
	if err != nil {
		return fmt.Errorf("reading balance after movement: %w", err)
	}

	_, err = tx.Exec(
		"INSERT INTO credit_transactions (owner_id, field, delta, balance_after, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		ownerID, string(field), delta, after, reason, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording transaction: %w", err)
	}
	return nil
}

// scanRequest scans a credit request from a database row.
func scanRequest(row interface{ Scan(...interface{}) error }) (*Request, error) {
	var req Request
	var field, status string
	var reviewedAt sql.NullTime

	err := row.Scan(&req.ID, &req.OwnerID, &field, &req.Amount, &status, &req.ReviewedBy, &req.CreatedAt, &reviewedAt)
	if err != nil {
		return nil, err
	}

	req.Field = Field(field)
	req.Status = RequestStatus(status)
	if reviewedAt.Valid {
		req.ReviewedAt = &reviewedAt.Time
	}
	return &req, nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Warn("rolling back transaction", "error", err)
	}
}
