package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
)

// MockBatchIndexer is a mock implementation of BatchIndexer
type MockBatchIndexer struct {
	mu sync.Mutex

	// Batches records every submitted batch in order
	Batches [][]*domain.IndexItem

	// FailFirst makes the first N IndexBatch calls fail
	FailFirst int

	// IndexErr, when set, fails every call
	IndexErr error

	calls int
}

// NewMockBatchIndexer creates a new MockBatchIndexer
func NewMockBatchIndexer() *MockBatchIndexer {
	return &MockBatchIndexer{}
}

func (m *MockBatchIndexer) IndexBatch(ctx context.Context, items []*domain.IndexItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.IndexErr != nil {
		return m.IndexErr
	}
	if m.calls <= m.FailFirst {
		return domain.ErrBatchRejected
	}
	batch := make([]*domain.IndexItem, len(items))
	copy(batch, items)
	m.Batches = append(m.Batches, batch)
	return nil
}

func (m *MockBatchIndexer) HealthCheck(ctx context.Context) error { return nil }

// Calls returns the number of IndexBatch invocations, including failed ones.
func (m *MockBatchIndexer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ItemIDs returns the ids of all successfully submitted items, in order.
func (m *MockBatchIndexer) ItemIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, batch := range m.Batches {
		for _, item := range batch {
			ids = append(ids, item.ID)
		}
	}
	return ids
}
