package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ProcessedLedger = (*LedgerStore)(nil)

const processedSetKey = "edgar:processed"

// LedgerStore implements driven.ProcessedLedger using a Redis set. The set
// is mirrored into memory at open so Contains stays off the network.
type LedgerStore struct {
	mu     sync.RWMutex
	client *redis.Client
	key    string
	seen   map[string]struct{}
	closed bool
}

// OpenLedgerStore loads the processed set. An empty key overrides nothing
// and uses the default.
func OpenLedgerStore(ctx context.Context, client *redis.Client, key string) (*LedgerStore, error) {
	if key == "" {
		key = processedSetKey
	}

	ids, err := client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("loading processed set %s: %w", key, err)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}

	return &LedgerStore{client: client, key: key, seen: seen}, nil
}

func (s *LedgerStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[id]
	return ok
}

// MarkBatch adds the whole batch with a single SADD.
func (s *LedgerStore) MarkBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrLedgerClosed
	}

	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.client.SAdd(ctx, s.key, members...).Err(); err != nil {
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

// Close marks the store unusable. The Redis client is owned by the caller.
func (s *LedgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
