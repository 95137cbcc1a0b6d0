package mocks

import (
	"sort"
	"strings"

	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

// MockNormaliser is a mock implementation of Normaliser for testing
type MockNormaliser struct {
	NormaliseFn  func(raw string) string
	ExtensionsFn func() []string
	PriorityFn   func() int
}

func NewMockNormaliser() *MockNormaliser {
	return &MockNormaliser{}
}

func (m *MockNormaliser) Normalise(raw string) string {
	if m.NormaliseFn != nil {
		return m.NormaliseFn(raw)
	}
	return raw
}

func (m *MockNormaliser) SupportedExtensions() []string {
	if m.ExtensionsFn != nil {
		return m.ExtensionsFn()
	}
	return []string{".htm", ".txt"}
}

func (m *MockNormaliser) Priority() int {
	if m.PriorityFn != nil {
		return m.PriorityFn()
	}
	return 100
}

// MockNormaliserRegistry is a mock implementation of NormaliserRegistry for testing
type MockNormaliserRegistry struct {
	normalisers map[string]driven.Normaliser
	fallback    driven.Normaliser
}

func NewMockNormaliserRegistry() *MockNormaliserRegistry {
	return &MockNormaliserRegistry{
		normalisers: make(map[string]driven.Normaliser),
		fallback:    NewMockNormaliser(),
	}
}

func (m *MockNormaliserRegistry) Get(extension string) driven.Normaliser {
	if n, ok := m.normalisers[strings.ToLower(extension)]; ok {
		return n
	}
	return m.fallback
}

func (m *MockNormaliserRegistry) Register(n driven.Normaliser) {
	for _, ext := range n.SupportedExtensions() {
		m.normalisers[strings.ToLower(ext)] = n
	}
}

func (m *MockNormaliserRegistry) List() []string {
	exts := make([]string, 0, len(m.normalisers))
	for ext := range m.normalisers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// SetFallback sets the normaliser returned for unregistered extensions.
// A nil fallback makes Get return nil for them instead.
func (m *MockNormaliserRegistry) SetFallback(n driven.Normaliser) {
	m.fallback = n
}

// MockSegmenter is a mock implementation of Segmenter for testing
type MockSegmenter struct {
	SegmentFn func(text string) []string
}

func NewMockSegmenter() *MockSegmenter {
	return &MockSegmenter{}
}

func (m *MockSegmenter) Segment(text string) []string {
	if m.SegmentFn != nil {
		return m.SegmentFn(text)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []string{text}
}
