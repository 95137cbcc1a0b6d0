package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
)

// MockCatalogClient is a mock implementation of CatalogClient for testing
type MockCatalogClient struct {
	mu       sync.RWMutex
	Tickers  map[string]string // ticker -> entity id
	Filings  map[string][]domain.FilingDescriptor
	Archives map[string]string // accession number -> raw archive text

	ResolveErr error
	ListErr    error
	FetchErr   error

	FetchCalls int
}

// NewMockCatalogClient creates a new MockCatalogClient
func NewMockCatalogClient() *MockCatalogClient {
	return &MockCatalogClient{
		Tickers:  make(map[string]string),
		Filings:  make(map[string][]domain.FilingDescriptor),
		Archives: make(map[string]string),
	}
}

func (m *MockCatalogClient) ResolveTicker(ctx context.Context, ticker string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ResolveErr != nil {
		return "", m.ResolveErr
	}
	id, ok := m.Tickers[ticker]
	if !ok {
		return "", domain.ErrUnknownTicker
	}
	return id, nil
}

func (m *MockCatalogClient) ListFilings(ctx context.Context, entityID string) ([]domain.FilingDescriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Filings[entityID], nil
}

func (m *MockCatalogClient) FetchArchive(ctx context.Context, filing domain.FilingDescriptor) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	if m.FetchErr != nil {
		return "", m.FetchErr
	}
	body, ok := m.Archives[filing.AccessionNumber]
	if !ok {
		return "", domain.ErrNotFound
	}
	return body, nil
}

// MockArchiveCache is an in-memory mock of ArchiveCache
type MockArchiveCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMockArchiveCache creates a new MockArchiveCache
func NewMockArchiveCache() *MockArchiveCache {
	return &MockArchiveCache{entries: make(map[string]string)}
}

func (m *MockArchiveCache) Get(sourceURL string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.entries[sourceURL]
	return body, ok
}

func (m *MockArchiveCache) Put(sourceURL string, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sourceURL] = body
	return m.Path(sourceURL), nil
}

func (m *MockArchiveCache) Path(sourceURL string) string {
	return "mem://" + sourceURL
}

func (m *MockArchiveCache) Len() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}
