package driven

import (
	"context"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
)

// BatchIndexer submits index items to the destination search index.
type BatchIndexer interface {
	// IndexBatch submits one batch of items in a single call.
	// The batch succeeds or fails atomically for ledger purposes: a non-nil
	// error means no id in the batch may be marked processed.
	IndexBatch(ctx context.Context, items []*domain.IndexItem) error

	// HealthCheck verifies the index endpoint is reachable.
	HealthCheck(ctx context.Context) error
}
