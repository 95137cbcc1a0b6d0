package segmentation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// A page-number line is a short line carrying a page label: an optional
// single-capital-letter prefix ("A-", "F."), then 1-3 digits or a Roman
// numeral, optionally paired with fixed surrounding text on the same visual
// line. Three layouts are recognized: number before text, number after text,
// and number between two text fragments.
const numberPattern = `(?:[A-Z][-–.:])?(?:\d{1,3}|[ivxlcdm]{1,7}|[IVXLCDM]{1,7})`

var (
	bareNumberRe    = regexp.MustCompile(`^(` + numberPattern + `)$`)
	numberBeforeRe  = regexp.MustCompile(`^(` + numberPattern + `)\s+(\S.*)$`)
	numberAfterRe   = regexp.MustCompile(`^(.*\S)\s+(` + numberPattern + `)$`)
	numberBetweenRe = regexp.MustCompile(`^(.*\S)\s+(` + numberPattern + `)\s+(\S.*)$`)
)

// maxNumberLineLen caps candidate lines; page footers are short.
const maxNumberLineLen = 80

// numberMatch is one page-number line occurrence.
type numberMatch struct {
	key     string // fixed surrounding text, or "" for the bare pattern
	value   int    // parsed page number
	lineEnd int    // byte offset just past the matched line's newline
}

// parseNumberToken strips the optional capital-letter prefix and parses the
// numeric part, converting Roman numerals. Returns false when the token is
// not a usable page number.
func parseNumberToken(token string) (int, bool) {
	body := token
	if len(body) >= 2 && body[0] >= 'A' && body[0] <= 'Z' && !isRomanStart(body) {
		switch body[1] {
		case '-', '.', ':':
			body = body[2:]
		default:
			if strings.HasPrefix(body[1:], "–") { // en dash prefix
				body = body[1+len("–"):]
			}
		}
	}
	if n, err := strconv.Atoi(body); err == nil {
		return n, true
	}
	if n, err := RomanToInt(body); err == nil {
		return n, true
	}
	return 0, false
}

// isRomanStart reports whether the token as a whole is a Roman numeral, so
// that "IV" is not misread as prefix "I" plus garbage.
func isRomanStart(token string) bool {
	return IsRoman(token)
}

// matchNumberLine classifies one trimmed line. Returns the group key, the
// parsed number and true on a match.
func matchNumberLine(line string) (string, int, bool) {
	if line == "" || len(line) > maxNumberLineLen {
		return "", 0, false
	}

	if m := bareNumberRe.FindStringSubmatch(line); m != nil {
		if n, ok := parseNumberToken(m[1]); ok {
			return "", n, true
		}
		return "", 0, false
	}
	if m := numberBeforeRe.FindStringSubmatch(line); m != nil {
		if n, ok := parseNumberToken(m[1]); ok {
			return "post:" + m[2], n, true
		}
	}
	if m := numberBetweenRe.FindStringSubmatch(line); m != nil {
		if n, ok := parseNumberToken(m[2]); ok {
			return "mid:" + m[1] + "|" + m[3], n, true
		}
	}
	if m := numberAfterRe.FindStringSubmatch(line); m != nil {
		if n, ok := parseNumberToken(m[2]); ok {
			return "pre:" + m[1], n, true
		}
	}
	return "", 0, false
}

// numberGroup is a set of matches sharing the same surrounding text.
type numberGroup struct {
	key     string
	matches []numberMatch
	first   int // document order of the group's first occurrence
}

// collectNumberGroups scans the text and groups page-number line matches by
// their fixed surrounding text (or the bare pattern), preserving document
// order of first occurrence.
func collectNumberGroups(text string) []numberGroup {
	groups := make(map[string]*numberGroup)
	order := 0

	offset := 0
	for offset <= len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		var line string
		var next int
		if lineEnd < 0 {
			line = text[offset:]
			next = len(text) + 1
		} else {
			line = text[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}

		trimmed := strings.TrimSpace(line)
		if key, n, ok := matchNumberLine(trimmed); ok {
			g, exists := groups[key]
			if !exists {
				g = &numberGroup{key: key, first: order}
				groups[key] = g
				order++
			}
			g.matches = append(g.matches, numberMatch{key: key, value: n, lineEnd: next})
		}

		offset = next
	}

	result := make([]numberGroup, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].first < result[j].first })
	return result
}

// isMonotonic validates that the group's numbers form a non-decreasing
// sequence in document order, allowing up to tolerance of the comparisons to
// violate monotonicity (OCR and typo noise).
func isMonotonic(matches []numberMatch, tolerance float64) bool {
	if len(matches) < 2 {
		return false
	}
	violations := 0
	for i := 1; i < len(matches); i++ {
		if matches[i].value < matches[i-1].value {
			violations++
		}
	}
	return float64(violations)/float64(len(matches)-1) <= tolerance
}

// splitAtLineEnds cuts the text after each matched line. A non-blank
// remainder after the last match becomes a final segment.
func splitAtLineEnds(text string, matches []numberMatch) []string {
	var segments []string
	prev := 0
	for _, m := range matches {
		end := m.lineEnd
		if end > len(text) {
			end = len(text)
		}
		segments = append(segments, text[prev:end])
		prev = end
	}
	if prev < len(text) && strings.TrimSpace(text[prev:]) != "" {
		segments = append(segments, text[prev:])
	}
	return segments
}
