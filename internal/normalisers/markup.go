package normalisers

import (
	"html"
	"regexp"
	"strings"
)

// allowedTags survive the final tag strip: table structure, underline and
// sub/superscript. Anchors and images are converted to inline form before
// this point, everything else is removed.
var allowedTags = map[string]bool{
	"table": true,
	"tr":    true,
	"td":    true,
	"th":    true,
	"u":     true,
	"sub":   true,
	"sup":   true,
}

var (
	markupRe      = regexp.MustCompile(`<[a-zA-Z/!]`)
	commentRe     = regexp.MustCompile(`(?s)<!--.*?-->`)
	declarationRe = regexp.MustCompile(`(?i)<!(?:DOCTYPE)[^>]*>`)

	interTagSpaceRe = regexp.MustCompile(`>\s+<`)
	openBracketRe   = regexp.MustCompile(`<\s+`)
	closeBracketRe  = regexp.MustCompile(`\s+>`)
	multiSpaceRe    = regexp.MustCompile(`[ \t]{2,}`)

	openTagRe  = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*(?::[a-zA-Z][a-zA-Z0-9.-]*)?)((?:\s[^<>]*)?)(/?)>`)
	keepAttrRe = regexp.MustCompile(`(?i)\b(href|src)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s<>"']+))`)

	selfClosingRe = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*(?::[a-zA-Z][a-zA-Z0-9.-]*)?)([^<>]*?)\s*/>`)

	brPairRe     = regexp.MustCompile(`(?i)<br></br>`)
	blockBreakRe = regexp.MustCompile(`(?i)</?(?:p|div|br)>`)

	anchorHrefRe = regexp.MustCompile(`(?s)<a href="([^"]*)">(.*?)</a>`)
	anchorBareRe = regexp.MustCompile(`(?s)<a>(.*?)</a>`)
	imageSrcRe   = regexp.MustCompile(`(?s)<img src="([^"]*)"></img>`)
	imageBareRe  = regexp.MustCompile(`(?s)<img></img>`)

	italicRe = regexp.MustCompile(`(?s)<(?:i|em)>(.*?)</(?:i|em)>`)
	boldRe   = regexp.MustCompile(`(?s)<(?:b|strong)>(.*?)</(?:b|strong)>`)

	headerRe   = regexp.MustCompile(`(?s)<h([1-6])>(.*?)</h[1-6]>`)
	listItemRe = regexp.MustCompile(`(?s)<li>(.*?)</li>`)
	strayLiRe  = regexp.MustCompile(`(?i)</?li>`)
	hrRe       = regexp.MustCompile(`(?i)<hr></hr>|<hr>`)

	anyTagRe        = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*(:[a-zA-Z][a-zA-Z0-9.-]*)?)[^<>]*>`)
	extHeaderRe     = regexp.MustCompile(`(?is)<ix:header>.*?</ix:header>`)
	namespacedTagRe = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*:[^<>]*>`)
)

// emptyTagRes match empty allow-listed tags, innermost first.
var emptyTagRes = func() []*regexp.Regexp {
	names := []string{"td", "th", "tr", "table", "u", "sub", "sup"}
	res := make([]*regexp.Regexp, len(names))
	for i, n := range names {
		res[i] = regexp.MustCompile(`<` + n + `>\s*</` + n + `>`)
	}
	return res
}()

// NewMarkupNormaliser builds the full markup-to-text pipeline for .htm
// sub-documents.
func NewMarkupNormaliser() *Pipeline {
	return NewPipeline("markup", []string{".htm"}, 50, []Stage{
		{Name: "line-endings", Apply: normaliseLineEndings},
		{Name: "tag-boundary-whitespace", Apply: collapseTagBoundaryWhitespace},
		{Name: "strip-attributes", Apply: stripAttributes},
		{Name: "expand-self-closing", Apply: expandSelfClosing},
		{Name: "block-breaks", Apply: convertBlockBreaks},
		{Name: "anchors", Apply: convertAnchors},
		{Name: "images", Apply: convertImages},
		{Name: "emphasis", Apply: convertEmphasis},
		{Name: "headers", Apply: convertHeaders},
		{Name: "list-items", Apply: convertListItems},
		{Name: "horizontal-rules", Apply: convertHorizontalRules},
		{Name: "strip-disallowed-tags", Apply: stripDisallowedTags},
		{Name: "strip-extension-markup", Apply: stripExtensionMarkup},
		{Name: "remove-empty-tags", Apply: removeEmptyTags},
		{Name: "decode-entities", Apply: html.UnescapeString},
	})
}

// residualTagRe matches the allow-listed tags that legitimately survive
// normalisation, in the bare lowercased form earlier passes leave them in.
var residualTagRe = regexp.MustCompile(`</?(?:table|tr|td|th|u|sub|sup)>`)

// hasForeignMarkup reports whether s contains markup beyond the bare
// allow-listed residue of a previous normalisation pass. The folding stages
// must not re-trigger on residue: already-normalised text with a kept table
// would otherwise lose its line structure on a second pass.
func hasForeignMarkup(s string) bool {
	return markupRe.MatchString(residualTagRe.ReplaceAllString(s, ""))
}

// normaliseLineEndings collapses all line breaks to \n, then folds embedded
// line breaks into spaces so tag matching is not broken by arbitrary
// wrapping. Text whose only tags are allow-listed residue keeps its line
// structure - there is nothing left to match, and folding would destroy
// already-clean output.
func normaliseLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if hasForeignMarkup(s) {
		s = strings.ReplaceAll(s, "\n", " ")
	}
	return s
}

// collapseTagBoundaryWhitespace removes whitespace immediately adjacent to
// tag boundaries and collapses runs of spaces left behind by line folding.
// Skipped when only allow-listed residue remains, for the same reason the
// fold is.
func collapseTagBoundaryWhitespace(s string) string {
	if !hasForeignMarkup(s) {
		return s
	}
	s = interTagSpaceRe.ReplaceAllString(s, "><")
	s = openBracketRe.ReplaceAllString(s, "<")
	s = closeBracketRe.ReplaceAllString(s, ">")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return s
}

// stripAttributes removes comments, declarations and every tag attribute
// except href and src, which later stages need for links and images.
func stripAttributes(s string) string {
	s = commentRe.ReplaceAllString(s, "")
	s = declarationRe.ReplaceAllString(s, "")
	return openTagRe.ReplaceAllStringFunc(s, func(tag string) string {
		m := openTagRe.FindStringSubmatch(tag)
		name := strings.ToLower(m[1])
		attrs := m[2]
		slash := m[3]

		kept := ""
		if am := keepAttrRe.FindStringSubmatch(attrs); am != nil {
			value := am[2]
			if value == "" {
				value = am[3]
			}
			if value == "" {
				value = am[4]
			}
			if value != "" {
				kept = " " + strings.ToLower(am[1]) + `="` + value + `"`
			}
		}
		return "<" + name + kept + slash + ">"
	})
}

// expandSelfClosing canonicalizes <tag/> into <tag></tag> so later stages
// can rely on uniform open/close matching.
func expandSelfClosing(s string) string {
	return selfClosingRe.ReplaceAllString(s, "<$1$2></$1>")
}

// convertBlockBreaks rewrites paragraph, line-break and div tags as newlines.
func convertBlockBreaks(s string) string {
	s = brPairRe.ReplaceAllString(s, "\n")
	return blockBreakRe.ReplaceAllString(s, "\n")
}

// convertAnchors rewrites <a href="t">text</a> as [text](t). Anchors without
// a target (named anchors after attribute stripping) keep only their text.
func convertAnchors(s string) string {
	s = anchorHrefRe.ReplaceAllString(s, "[$2]($1)")
	return anchorBareRe.ReplaceAllString(s, "$1")
}

// convertImages rewrites images with a resolvable source as ![](src) and
// drops the rest.
func convertImages(s string) string {
	s = imageSrcRe.ReplaceAllString(s, "![]($1)")
	return imageBareRe.ReplaceAllString(s, "")
}

// convertEmphasis wraps italic text in underscores and bold text in
// asterisks. Runs to a fixpoint so nested emphasis unwinds fully.
func convertEmphasis(s string) string {
	for {
		next := italicRe.ReplaceAllStringFunc(s, func(m string) string {
			inner := italicRe.FindStringSubmatch(m)[1]
			return "_" + strings.TrimSpace(inner) + "_"
		})
		next = boldRe.ReplaceAllStringFunc(next, func(m string) string {
			inner := boldRe.FindStringSubmatch(m)[1]
			return "*" + strings.TrimSpace(inner) + "*"
		})
		if next == s {
			return next
		}
		s = next
	}
}

// convertHeaders rewrites <hN> as a leading run of N '#' characters.
func convertHeaders(s string) string {
	return headerRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := headerRe.FindStringSubmatch(m)
		level := int(sub[1][0] - '0')
		return "\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(sub[2]) + "\n"
	})
}

// convertListItems rewrites list items with a leading "- ".
func convertListItems(s string) string {
	s = listItemRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := listItemRe.FindStringSubmatch(m)[1]
		return "\n- " + strings.TrimSpace(inner)
	})
	return strayLiRe.ReplaceAllString(s, "")
}

// convertHorizontalRules rewrites rule tags as a literal --- line.
func convertHorizontalRules(s string) string {
	return hrRe.ReplaceAllString(s, "\n---\n")
}

// stripDisallowedTags removes any remaining tag not in the allow-list.
// Namespaced extension tags are left for the next stage, which also drops
// their header block.
func stripDisallowedTags(s string) string {
	return anyTagRe.ReplaceAllStringFunc(s, func(tag string) string {
		m := anyTagRe.FindStringSubmatch(tag)
		name := strings.ToLower(m[1])
		if strings.Contains(name, ":") {
			return tag
		}
		if allowedTags[name] {
			return tag
		}
		return ""
	})
}

// stripExtensionMarkup removes inline extension namespace markup and its
// header block entirely. Must precede empty-tag elimination: stripped
// extension tags often leave empty wrapper tags behind.
func stripExtensionMarkup(s string) string {
	s = extHeaderRe.ReplaceAllString(s, "")
	return namespacedTagRe.ReplaceAllString(s, "")
}

// removeEmptyTags drops tags whose content is empty or whitespace-only,
// including nested empty rows inside otherwise non-empty tables. Runs to a
// fixpoint so removing inner cells exposes empty rows and tables.
func removeEmptyTags(s string) string {
	for {
		next := s
		for _, re := range emptyTagRes {
			next = re.ReplaceAllString(next, "")
		}
		if next == s {
			return next
		}
		s = next
	}
}
