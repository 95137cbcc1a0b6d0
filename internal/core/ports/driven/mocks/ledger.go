package mocks

import (
	"context"
	"sync"
)

// MockProcessedLedger is an in-memory mock of ProcessedLedger
type MockProcessedLedger struct {
	mu      sync.RWMutex
	ids     map[string]struct{}
	MarkErr error

	// MarkedBatches records every MarkBatch call in order
	MarkedBatches [][]string
}

// NewMockProcessedLedger creates a new MockProcessedLedger
func NewMockProcessedLedger(seed ...string) *MockProcessedLedger {
	ids := make(map[string]struct{}, len(seed))
	for _, id := range seed {
		ids[id] = struct{}{}
	}
	return &MockProcessedLedger{ids: ids}
}

func (m *MockProcessedLedger) Contains(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[id]
	return ok
}

func (m *MockProcessedLedger) MarkBatch(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	batch := make([]string, len(ids))
	copy(batch, ids)
	m.MarkedBatches = append(m.MarkedBatches, batch)
	for _, id := range ids {
		m.ids[id] = struct{}{}
	}
	return nil
}

func (m *MockProcessedLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

func (m *MockProcessedLedger) Close() error { return nil }
