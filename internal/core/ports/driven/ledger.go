package driven

import "context"

// ProcessedLedger is the durable set of index item ids already confirmed
// uploaded. An id present in the ledger must never be re-submitted.
//
// The ledger is loaded once at pipeline start, grows monotonically during a
// run, and is mutated only by the uploader after a confirmed successful batch.
type ProcessedLedger interface {
	// Contains reports whether an item id was already processed.
	Contains(id string) bool

	// MarkBatch durably appends a batch of item ids.
	// The in-memory set and the durable store are updated together.
	MarkBatch(ctx context.Context, ids []string) error

	// Len returns the number of processed ids.
	Len() int

	// Close releases the underlying store.
	Close() error
}
