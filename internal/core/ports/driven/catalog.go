package driven

import (
	"context"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
)

// CatalogClient fetches filing listings and raw archives from the upstream
// filing service.
type CatalogClient interface {
	// ResolveTicker resolves a ticker symbol to a stable entity id.
	// Returns domain.ErrUnknownTicker if the ticker is not in the lookup table.
	ResolveTicker(ctx context.Context, ticker string) (string, error)

	// ListFilings fetches the primary filing index for an entity plus any
	// paginated listing files it references, merged into a flat list.
	ListFilings(ctx context.Context, entityID string) ([]domain.FilingDescriptor, error)

	// FetchArchive downloads the raw archive for a filing.
	FetchArchive(ctx context.Context, filing domain.FilingDescriptor) (string, error)
}

// ArchiveCache stores raw filing archives on disk, keyed by download URI path.
// A cached archive is never re-downloaded - this is the resumability mechanism
// for the fetch stage.
type ArchiveCache interface {
	// Get returns the cached archive text and true when present.
	Get(sourceURL string) (string, bool)

	// Put stores the archive text and returns the local cache path.
	Put(sourceURL string, body string) (string, error)

	// Path returns the local cache path for a source URL without checking
	// whether the file exists.
	Path(sourceURL string) string

	// Len returns the number of cached archives.
	Len() (int, error)
}
