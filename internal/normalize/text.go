package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Hebrew punctuation that stores use interchangeably with ASCII quotes.
var quoteReplacer = strings.NewReplacer(
	"׳", "'", // geresh
	"״", `"`, // gershayim
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"־", "-", // maqaf
	"–", "-",
	"—", "-",
)

// DefaultAliases maps transliterated brand names to their Latin spelling
// so "מעבד אינטל i7" and "מעבד Intel i7" compare equal.
var DefaultAliases = map[string]string{
	"אינטל":     "intel",
	"איי.אמ.די": "amd",
	"סמסונג":    "samsung",
	"אפל":       "apple",
	"לוגיטק":    "logitech",
	"לנובו":     "lenovo",
	"אסוס":      "asus",
	"סוני":      "sony",
	"שיאומי":    "xiaomi",
	"נבידיה":    "nvidia",
	"קינגסטון":  "kingston",
	"מיקרוסופט": "microsoft",
	"פיליפס":    "philips",
	"גיגבייט":   "gigabyte",
}

// CleanText applies NFKC, drops format and control runes (bidi marks),
// unifies quotes and dashes, collapses whitespace and trims edge
// punctuation.
func CleanText(s string) string {
	return strings.TrimFunc(fold(s), func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("-|,;:*.", r)
	})
}

func fold(s string) string {
	s = norm.NFKC.String(s)
	s = quoteReplacer.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Tokens returns lower-cased comparison tokens with brand aliases applied.
func Tokens(s string, aliases map[string]string) []string {
	s = strings.ToLower(CleanText(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f == "" {
			continue
		}
		if a, ok := aliases[f]; ok {
			f = a
		}
		out = append(out, f)
	}
	return out
}

// Similarity is the Jaccard index of the two token sets.
func Similarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	other := make(map[string]struct{}, len(b))
	for _, t := range b {
		other[t] = struct{}{}
	}
	inter := 0
	for t := range other {
		if _, ok := set[t]; ok {
			inter++
		}
	}
	union := len(set) + len(other) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
