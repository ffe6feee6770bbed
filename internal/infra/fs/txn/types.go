// Package txn stages a run's new artifacts so they reach the newest directory only
// after the previous outputs have been archived.
package txn

import "fmt"

// Status represents the current state of a staging transaction.
type Status string

const (
	// StatusPending indicates files may still be staged
	StatusPending Status = "pending"

	// StatusCommit indicates staged files were moved into place
	StatusCommit Status = "commit"

	// StatusAborted indicates the staging area was discarded
	StatusAborted Status = "aborted"

	// StatusFailed indicates commit stopped part way
	StatusFailed Status = "failed"
)

// StagedFile is one artifact waiting in the staging area.
type StagedFile struct {
	// Path relative to the destination root, e.g. "new_pairs/2024-01-05_new_pairs.csv"
	Path string
	Size int64
}

// TxnError represents transaction-specific errors.
type TxnError struct {
	RunID     string
	Operation string
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *TxnError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("staging %s: %s %s failed: %v", e.RunID, e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("staging %s: %s failed: %v", e.RunID, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *TxnError) Unwrap() error {
	return e.Err
}
