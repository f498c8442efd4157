package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics ("Náměstí" -> "namesti").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Compose returns the NFC form of s, lower-cased with runs of whitespace
// collapsed, so decomposed page text compares equal to literal keywords.
func Compose(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(s)), " "))
}

// Street extracts the street name from a Czech postal address: the first
// comma-separated part, without the "č.p." marker, cut at the first digit.
func Street(address string) string {
	s := strings.ReplaceAll(address, "č.p.", "")
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexFunc(s, unicode.IsDigit); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Key folds s and drops punctuation so "Nám. Míru" and "nam miru" compare equal.
func Key(s string) string {
	folded := Fold(s)
	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
