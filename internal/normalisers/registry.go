package normalisers

import (
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry implements NormaliserRegistry with priority-based selection.
// When multiple normalisers match an extension, the highest priority one is
// used.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a new normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make([]driven.Normaliser, 0),
	}
}

// DefaultRegistry creates a registry with the standard filing normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewMarkupNormaliser())
	r.Register(NewPlainTextNormaliser())
	return r
}

// Register registers a normaliser.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
}

// Get retrieves the best-matching normaliser for an extension.
// Returns nil if none is registered for the extension.
func (r *Registry) Get(extension string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extension = strings.ToLower(strings.TrimSpace(extension))

	var best driven.Normaliser
	for _, n := range r.normalisers {
		if !supportsExtension(n.SupportedExtensions(), extension) {
			continue
		}
		if best == nil || n.Priority() > best.Priority() {
			best = n
		}
	}
	return best
}

// List returns all registered extensions, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extSet := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, ext := range n.SupportedExtensions() {
			extSet[ext] = struct{}{}
		}
	}

	exts := make([]string, 0, len(extSet))
	for ext := range extSet {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func supportsExtension(supported []string, extension string) bool {
	for _, s := range supported {
		if s == extension {
			return true
		}
	}
	return false
}
