package normalize

import (
	"regexp"
	"strings"
)

// emailPattern is deliberately conservative: ASCII local part, dotted
// domain, 2-7 letter TLD.
var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,7}\b`)

// knownSuffixes are checked in order; trailing text after the first one
// found at a label boundary is dropped.
var knownSuffixes = []string{".cz", ".com", ".eu", ".org"}

// Emails returns every canonical address found in text, in order of
// appearance. Duplicates are kept.
func Emails(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, truncateSuffix(strings.ToLower(m)))
	}
	return out
}

// Email returns the first canonical address in s, or "".
func Email(s string) string {
	if found := Emails(s); len(found) > 0 {
		return found[0]
	}
	return ""
}

func truncateSuffix(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return addr
	}
	domain := addr[at+1:]
	for _, suffix := range knownSuffixes {
		if i := suffixEnd(domain, suffix); i > 0 {
			return addr[:at+1] + domain[:i]
		}
	}
	return addr
}

// suffixEnd returns the index just past the first occurrence of suffix in
// domain that ends a label, or -1.
func suffixEnd(domain, suffix string) int {
	offset := 0
	for {
		i := strings.Index(domain[offset:], suffix)
		if i < 0 {
			return -1
		}
		end := offset + i + len(suffix)
		if end == len(domain) || !isLabelChar(domain[end]) {
			return end
		}
		offset = offset + i + 1
	}
}

func isLabelChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-'
}
