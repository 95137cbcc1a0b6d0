// Package segmentation splits normalized filing text into page-sized
// segments. A ranked list of strategies is tried in priority order; the
// first decisive strategy that produces a valid split wins, and the
// remaining heuristics compete on segment count as a fallback.
package segmentation

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

const (
	// defaultCharsPerPage drives the occurrence threshold for the
	// line-number heuristic: a numbering group must fire more often than
	// once per this many characters to be trusted.
	defaultCharsPerPage = 5000

	// defaultTolerance is the fraction of monotonicity violations
	// accepted in a page-number sequence.
	defaultTolerance = 0.05
)

var (
	pageMarkerRe = regexp.MustCompile(`(?m)^[ \t]*<PAGE>[^\n]*$`)
	tocMarkerRe  = regexp.MustCompile(`(?mi)^[ \t]*table of contents[ \t]*$`)
	ruleLineRe   = regexp.MustCompile(`(?m)^[ \t]*-{3,}[ \t]*$`)
	selfLinkRe   = regexp.MustCompile(`(?m)^[ \t]*\[[^\]\n]+\]\(#([^)\n]+)\)[ \t]*$`)
)

// A Strategy proposes one way of splitting a document into segments.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string
	// Split returns the proposed segments, or nil when the strategy does
	// not apply to this text.
	Split(text string) []string
	// Decisive reports whether a valid split from this strategy should be
	// taken immediately instead of competing with later heuristics.
	Decisive() bool
}

// Candidate is one strategy's evaluated proposal.
type Candidate struct {
	Strategy string
	Pages    []string
	Valid    bool
	Decisive bool
}

// Config tunes the segmenter's heuristics. Zero values take defaults.
type Config struct {
	CharsPerPage int
	Tolerance    float64
	Logger       *slog.Logger
}

// Segmenter applies the ranked strategy list to a document.
type Segmenter struct {
	strategies []Strategy
	log        *slog.Logger
}

// New constructs a Segmenter with the standard strategy order: explicit
// page markers, embedded table-of-contents markers, page-number footers,
// horizontal rules, then repeated same-document link targets.
func New(cfg Config) *Segmenter {
	if cfg.CharsPerPage <= 0 {
		cfg.CharsPerPage = defaultCharsPerPage
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaultTolerance
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Segmenter{
		strategies: []Strategy{
			pageMarkerStrategy{},
			tocMarkerStrategy{},
			lineNumberStrategy{charsPerPage: cfg.CharsPerPage, tolerance: cfg.Tolerance},
			ruleLineStrategy{},
			selfLinkStrategy{},
		},
		log: log,
	}
}

var _ driven.Segmenter = (*Segmenter)(nil)

// Segment splits text into pages. It always returns at least one page for
// non-blank input; a document no strategy can split comes back whole.
func (s *Segmenter) Segment(text string) []string {
	candidates := s.Evaluate(text)
	chosen := Select(candidates)
	if chosen == nil {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{cleanSegment(text)}
	}
	s.log.Debug("document segmented",
		"strategy", chosen.Strategy,
		"pages", len(chosen.Pages))
	return chosen.Pages
}

// Evaluate runs every strategy and returns the evaluated candidates in
// strategy order, stopping early after the first valid decisive one.
func (s *Segmenter) Evaluate(text string) []Candidate {
	var out []Candidate
	for _, st := range s.strategies {
		pages := finishSegments(st.Split(text))
		c := Candidate{
			Strategy: st.Name(),
			Pages:    pages,
			Valid:    len(pages) > 1,
			Decisive: st.Decisive(),
		}
		out = append(out, c)
		if c.Valid && c.Decisive {
			break
		}
	}
	return out
}

// Select picks the winning candidate: the first valid decisive one, and
// otherwise the valid fallback with the most pages. Nil means no strategy
// produced a multi-page split.
func Select(candidates []Candidate) *Candidate {
	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if !c.Valid {
			continue
		}
		if c.Decisive {
			return c
		}
		if best == nil || len(c.Pages) > len(best.Pages) {
			best = c
		}
	}
	return best
}

// finishSegments trims trailing whitespace from each segment and drops the
// blank ones.
func finishSegments(segments []string) []string {
	var out []string
	for _, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		out = append(out, cleanSegment(seg))
	}
	return out
}

func cleanSegment(seg string) string {
	return strings.TrimRight(seg, " \t\n")
}

// pageMarkerStrategy splits on explicit <PAGE> marker lines left over from
// the original filing markup. Trailing text on the marker line, typically a
// printed page number, belongs to the marker and is discarded with it. Blank
// runs stacked before a marker land at a segment tail and are trimmed away.
type pageMarkerStrategy struct{}

func (pageMarkerStrategy) Name() string   { return "page-marker" }
func (pageMarkerStrategy) Decisive() bool { return true }

func (pageMarkerStrategy) Split(text string) []string {
	if !pageMarkerRe.MatchString(text) {
		return nil
	}
	return pageMarkerRe.Split(text, -1)
}

// tocMarkerStrategy splits before standalone "Table of Contents" lines,
// the navigation anchor large filings repeat at the top of every page. A
// single occurrence is just the front-matter index, not a page marker.
type tocMarkerStrategy struct{}

func (tocMarkerStrategy) Name() string   { return "toc-marker" }
func (tocMarkerStrategy) Decisive() bool { return true }

func (tocMarkerStrategy) Split(text string) []string {
	locs := tocMarkerRe.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return nil
	}
	var segments []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			segments = append(segments, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	segments = append(segments, text[prev:])
	return segments
}

// lineNumberStrategy detects repeating page-number footer lines, groups
// them by surrounding text, validates each group's sequence and splits
// after the footers of the first trustworthy group.
type lineNumberStrategy struct {
	charsPerPage int
	tolerance    float64
}

func (lineNumberStrategy) Name() string   { return "line-number" }
func (lineNumberStrategy) Decisive() bool { return true }

func (s lineNumberStrategy) Split(text string) []string {
	threshold := len(text) / s.charsPerPage
	for _, g := range collectNumberGroups(text) {
		if len(g.matches) <= threshold || len(g.matches) < 2 {
			continue
		}
		if !isMonotonic(g.matches, s.tolerance) {
			continue
		}
		return splitAtLineEnds(text, g.matches)
	}
	return nil
}

// ruleLineStrategy splits on standalone horizontal rules, the markdown
// residue of <hr> separators. Weak evidence: rules also separate sections,
// so this competes with the other fallbacks on segment count.
type ruleLineStrategy struct{}

func (ruleLineStrategy) Name() string   { return "horizontal-rule" }
func (ruleLineStrategy) Decisive() bool { return false }

func (ruleLineStrategy) Split(text string) []string {
	if !ruleLineRe.MatchString(text) {
		return nil
	}
	return ruleLineRe.Split(text, -1)
}

// selfLinkStrategy splits before standalone same-document links pointing at
// the most frequent anchor target, the "back to index" links some filings
// repeat on every page.
type selfLinkStrategy struct{}

func (selfLinkStrategy) Name() string   { return "self-link" }
func (selfLinkStrategy) Decisive() bool { return false }

func (selfLinkStrategy) Split(text string) []string {
	matches := selfLinkRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) < 2 {
		return nil
	}

	counts := make(map[string]int)
	for _, m := range matches {
		counts[text[m[2]:m[3]]]++
	}
	var target string
	best := 1
	for t, n := range counts {
		if n > best || (n == best && t < target) {
			target, best = t, n
		}
	}
	if best < 2 {
		return nil
	}

	var segments []string
	prev := 0
	for _, m := range matches {
		if text[m[2]:m[3]] != target || m[0] <= prev {
			continue
		}
		segments = append(segments, text[prev:m[0]])
		prev = m[0]
	}
	segments = append(segments, text[prev:])
	return segments
}
