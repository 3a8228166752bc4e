package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// ErrRejected is returned for records that cannot become a valid
// observation. Rejected records are logged and skipped, never fatal.
var ErrRejected = errors.New("normalization rejected")

var numberPattern = regexp.MustCompile(`-?\d[\d.,\x{00A0}\x{202F} ]*`)

// currencyMarkers are checked in order against the lower-cased text.
var currencyMarkers = []struct {
	marker string
	code   string
}{
	{"₪", "ILS"},
	{`ש"ח`, "ILS"},
	{"שח", "ILS"},
	{"שקל", "ILS"},
	{"nis", "ILS"},
	{"ils", "ILS"},
	{"us$", "USD"},
	{"usd", "USD"},
	{"$", "USD"},
	{"€", "EUR"},
	{"eur", "EUR"},
	{"£", "GBP"},
	{"gbp", "GBP"},
}

// DetectCurrency returns the ISO 4217 code named in text, or "".
func DetectCurrency(text string) string {
	lower := strings.ToLower(fold(text))
	for _, m := range currencyMarkers {
		if strings.Contains(lower, m.marker) {
			return m.code
		}
	}
	return ""
}

// ParsePrice reads the amount in text. When text names a currency the
// amount closest to the marker wins, so "20% הנחה 1,299 ₪" reads 1299;
// otherwise the first amount that is not a percentage is used. Both
// "1,299.90" and "1.299,90" are accepted; a lone separator followed by
// exactly three digits is read as a thousands separator.
func ParsePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.ToLower(fold(text))
	match := pickAmount(cleaned)
	if match == "" {
		return decimal.Zero, fmt.Errorf("%w: no amount in %q", ErrRejected, text)
	}
	if strings.HasPrefix(match, "-") {
		return decimal.Zero, fmt.Errorf("%w: negative amount in %q", ErrRejected, text)
	}

	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\u202f' {
			return -1
		}
		return r
	}, match)
	digits = strings.TrimRight(digits, ".,")
	digits = canonicalSeparators(digits)

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: unparsable amount %q: %w", ErrRejected, match, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive amount %s", ErrRejected, d)
	}
	return d, nil
}

// pickAmount returns the number in lowered text nearest to a currency
// marker, the first one on ties.
func pickAmount(lowered string) string {
	var spans [][2]int
	for _, m := range currencyMarkers {
		for off := 0; ; {
			i := strings.Index(lowered[off:], m.marker)
			if i < 0 {
				break
			}
			start := off + i
			spans = append(spans, [2]int{start, start + len(m.marker)})
			off = start + len(m.marker)
		}
	}

	locs := numberPattern.FindAllStringIndex(lowered, -1)
	best, bestGap := "", -1
	for _, loc := range locs {
		if strings.HasPrefix(lowered[loc[1]:], "%") {
			continue
		}
		// Digits glued to letters are part of a model code like "xm5".
		if r, _ := utf8.DecodeLastRuneInString(lowered[:loc[0]]); unicode.IsLetter(r) {
			continue
		}
		gap := 0
		if len(spans) > 0 {
			gap = len(lowered)
			for _, sp := range spans {
				gap = min(gap, distance(loc[0], loc[1], sp[0], sp[1]))
			}
		}
		if bestGap < 0 || gap < bestGap {
			best, bestGap = lowered[loc[0]:loc[1]], gap
		}
		if gap == 0 {
			break
		}
	}
	if best == "" && len(locs) > 0 {
		return lowered[locs[0][0]:locs[0][1]]
	}
	return best
}

// distance is the number of bytes between two non-overlapping spans.
func distance(aStart, aEnd, bStart, bEnd int) int {
	switch {
	case bStart >= aEnd:
		return bStart - aEnd
	case aStart >= bEnd:
		return aStart - bEnd
	default:
		return 0
	}
}

func canonicalSeparators(s string) string {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		return resolveSingle(s, ',')
	case lastDot >= 0:
		return resolveSingle(s, '.')
	default:
		return s
	}
}

// resolveSingle handles text using only one kind of separator.
func resolveSingle(s string, sep byte) string {
	sepStr := string(sep)
	if strings.Count(s, sepStr) > 1 {
		return strings.ReplaceAll(s, sepStr, "")
	}
	idx := strings.IndexByte(s, sep)
	if len(s)-idx-1 == 3 {
		return strings.ReplaceAll(s, sepStr, "")
	}
	return strings.Replace(s, sepStr, ".", 1)
}

// ParseAvailability maps free-form stock text to an Availability.
func ParseAvailability(text string) domain.Availability {
	lower := strings.ToLower(CleanText(text))
	if lower == "" {
		return domain.AvailabilityUnknown
	}
	for _, m := range []string{"אזל", "לא במלאי", "out of stock", "sold out", "unavailable", "not available", "out_of_stock"} {
		if strings.Contains(lower, m) {
			return domain.AvailabilityOutOfStock
		}
	}
	for _, m := range []string{"הזמנה מראש", "pre-order", "preorder", "pre order"} {
		if strings.Contains(lower, m) {
			return domain.AvailabilityPreorder
		}
	}
	for _, m := range []string{"במלאי", "in stock", "in_stock", "available", "זמין"} {
		if strings.Contains(lower, m) {
			return domain.AvailabilityInStock
		}
	}
	return domain.AvailabilityUnknown
}
