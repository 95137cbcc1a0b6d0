package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/lib/pq"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ProcessedLedger = (*LedgerStore)(nil)

// LedgerStore implements driven.ProcessedLedger using PostgreSQL. The whole
// processed set is loaded into memory at open; Contains never touches the
// database during a run.
type LedgerStore struct {
	mu     sync.RWMutex
	db     *DB
	seen   map[string]struct{}
	closed bool
}

// OpenLedgerStore loads the processed set from the database.
func OpenLedgerStore(ctx context.Context, db *DB) (*LedgerStore, error) {
	rows, err := db.QueryContext(ctx, `SELECT item_id FROM processed_items`)
	if err != nil {
		return nil, fmt.Errorf("loading processed items: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning processed item: %w", err)
		}
		seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processed items: %w", err)
	}

	return &LedgerStore{db: db, seen: seen}, nil
}

func (s *LedgerStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[id]
	return ok
}

// MarkBatch inserts the ids in one statement. Conflicting rows are ignored
// so re-marking after a partial failure stays safe.
func (s *LedgerStore) MarkBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrLedgerClosed
	}

	query := `
		INSERT INTO processed_items (item_id)
		SELECT unnest($1::text[])
		ON CONFLICT (item_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("marking batch: %w", err)
	}

	for _, id := range ids {
		s.seen[id] = struct{}{}
	}
	return nil
}

func (s *LedgerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Close marks the store unusable. The shared connection pool is owned by
// the caller and stays open.
func (s *LedgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
