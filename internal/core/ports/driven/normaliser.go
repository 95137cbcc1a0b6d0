package driven

// Normaliser converts a sub-document's raw markup body into clean text.
// Implementations are pure: the same input always yields the same output.
type Normaliser interface {
	// Normalise transforms raw markup into normalized text.
	Normalise(raw string) string

	// SupportedExtensions returns the file extensions this normaliser handles,
	// lowercased with leading dot (".htm", ".txt").
	SupportedExtensions() []string

	// Priority returns the normaliser priority (higher = more specific).
	Priority() int
}

// NormaliserRegistry selects a normaliser for a sub-document extension.
// When multiple normalisers match, the highest priority one is used.
type NormaliserRegistry interface {
	// Get retrieves the best-matching normaliser for an extension.
	// Returns nil if none is registered for the extension.
	Get(extension string) Normaliser

	// Register registers a normaliser.
	Register(n Normaliser)

	// List returns all registered extensions, sorted.
	List() []string
}

// Segmenter splits normalized text into page-sized units.
type Segmenter interface {
	// Segment returns pages in original order, each trimmed of trailing
	// whitespace. When no strategy yields more than one segment, the whole
	// text is returned as a single page.
	Segment(text string) []string
}
