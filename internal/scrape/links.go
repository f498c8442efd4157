package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/contact-cli/internal/normalize"
)

// contactKeywords mark anchors whose text points at a contact page.
var contactKeywords = []string{"kontakt", "contact", "kontakty", "o nás", "kdo-jsem", "o-nas"}

// IsContactAnchor reports whether anchor text names a contact page.
func IsContactAnchor(text string) bool {
	t := normalize.Compose(text)
	for _, kw := range contactKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// ContactLinks returns the absolute http(s) URLs of contact anchors in doc,
// resolved against base, without fragments, distinct, in document order.
func ContactLinks(doc *goquery.Document, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if !IsContactAnchor(s.Text()) {
			return
		}
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := baseURL.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		link := abs.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links
}
