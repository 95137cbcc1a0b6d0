// Package normalisers converts sub-document markup bodies into clean text.
//
// A normaliser is an ordered composition of independent text-rewrite stages,
// each a pure string -> string function. The composition is a left-to-right
// fold over the stage list, so stages can be added or reordered without
// touching call sites. Stage order is significant: attribute stripping must
// precede self-closing canonicalization, and namespace stripping must precede
// empty-tag elimination (stripped extension tags leave empty wrappers behind).
package normalisers

// Stage is one pure text-rewrite step in a normalisation pipeline.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Pipeline is an ordered list of stages folded left to right.
type Pipeline struct {
	name       string
	extensions []string
	priority   int
	stages     []Stage
}

// NewPipeline creates a pipeline over the given stages.
func NewPipeline(name string, extensions []string, priority int, stages []Stage) *Pipeline {
	return &Pipeline{
		name:       name,
		extensions: extensions,
		priority:   priority,
		stages:     stages,
	}
}

// Normalise folds the input through every stage in order.
func (p *Pipeline) Normalise(raw string) string {
	out := raw
	for _, stage := range p.stages {
		out = stage.Apply(out)
	}
	return out
}

// SupportedExtensions returns the extensions this pipeline handles.
func (p *Pipeline) SupportedExtensions() []string {
	return p.extensions
}

// Priority returns the pipeline priority (higher = more specific).
func (p *Pipeline) Priority() int {
	return p.priority
}

// Name returns the pipeline name for logging.
func (p *Pipeline) Name() string {
	return p.name
}

// Stages returns stage names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}
