package segmentation

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
)

// canonicalRomanRe accepts only well-formed Roman numerals in standard
// subtractive notation. Keeps footer noise like "mix" or "did" from being
// treated as page numbers.
var canonicalRomanRe = regexp.MustCompile(`^m{0,3}(cm|cd|d?c{0,3})(xc|xl|l?x{0,3})(ix|iv|v?i{0,3})$`)

var romanValues = map[byte]int{
	'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000,
}

// IsRoman reports whether s is a valid Roman numeral (either case, not mixed).
func IsRoman(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	if s != lower && s != strings.ToUpper(s) {
		return false
	}
	return canonicalRomanRe.MatchString(lower)
}

// RomanToInt converts a Roman numeral to an integer using standard
// subtractive-notation rules. Returns domain.ErrInvalidInput for anything
// that is not a well-formed numeral.
func RomanToInt(s string) (int, error) {
	if !IsRoman(s) {
		return 0, domain.ErrInvalidInput
	}
	lower := strings.ToLower(s)

	total := 0
	for i := 0; i < len(lower); i++ {
		v := romanValues[lower[i]]
		if i+1 < len(lower) && v < romanValues[lower[i+1]] {
			total -= v
		} else {
			total += v
		}
	}
	return total, nil
}
