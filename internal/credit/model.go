// Package credit provides the per-agent credit ledger: balances,
// decrements, grants, the request/approval workflow and the
// transaction history.
package credit

import "time"

// Field names one of the two independent counters on a balance.
type Field string

const (
	FieldListing  Field = "listing_credits"
	FieldBoosting Field = "boosting_credits"
)

// ValidField returns true if f is a known credit field.
func ValidField(f string) bool {
	return Field(f) == FieldListing || Field(f) == FieldBoosting
}

// Balance is one owner's pair of counters. Both are non-negative;
// the ledger refuses any decrement that would go below zero.
type Balance struct {
	OwnerID         string `json:"owner_id"`
	ListingCredits  int    `json:"listing_credits"`
	BoostingCredits int    `json:"boosting_credits"`
}

// Get returns the counter named by f.
func (b Balance) Get(f Field) int {
	if f == FieldBoosting {
		return b.BoostingCredits
	}
	return b.ListingCredits
}

// Ledger is the credit ledger contract consumed by the listing
// orchestrator. Decrement is not atomic with any paired record-store
// mutation; the caller owns sequencing and compensation.
type Ledger interface {
	GetBalance(ownerID string) (Balance, error)
	Decrement(ownerID string, field Field, amount int) error
}

// Service is the full ledger surface: the Ledger contract plus grants,
// the request/approval workflow and the transaction history. Both the
// SQLite and Postgres repositories implement it.
type Service interface {
	Ledger
	Grant(ownerID string, field Field, amount int, reason string) error
	Request(ownerID string, field Field, amount int) (*Request, error)
	GetRequest(id string) (*Request, error)
	ListRequests(status RequestStatus) ([]*Request, error)
	Approve(id, reviewer string) (*Request, error)
	Reject(id, reviewer string) (*Request, error)
	History(ownerID string) ([]*Transaction, error)
}

// RequestStatus is the state of a credit request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Request is an agent's ask for more credits, reviewed by an admin.
type Request struct {
	ID         string        `json:"id"`
	OwnerID    string        `json:"owner_id"`
	Field      Field         `json:"field"`
	Amount     int           `json:"amount"`
	Status     RequestStatus `json:"status"`
	ReviewedBy string        `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	ReviewedAt *time.Time    `json:"reviewed_at,omitempty"`
}

// Transaction is one ledger movement. Delta is positive for grants and
// negative for consumption; BalanceAfter is the counter value once the
// movement applied.
type Transaction struct {
	ID           int64     `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Field        Field     `json:"field"`
	Delta        int       `json:"delta"`
	BalanceAfter int       `json:"balance_after"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}
