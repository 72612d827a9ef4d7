package listing

import "fmt"

// PreconditionError means an action was refused before any remote call
// was issued: a credit gate, a status gate, or an empty selection.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// MutationError means a remote insert/update/delete step failed.
// Steps that succeeded before the failing one are not rolled back beyond
// the orchestrator's best-effort compensation; Compensated reports
// whether that reversal went through.
type MutationError struct {
	Op          string
	Err         error
	Compensated bool
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// ReloadError means the action itself succeeded but the post-action
// refresh of records or credits failed; cached data is stale until the
// next successful refresh.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("reload after action failed: %v", e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }
