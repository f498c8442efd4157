package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// rawEmailPattern is looser than the normalizer's grammar; candidates
	// are cleaned when the contact table is built.
	rawEmailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// rawPhonePattern matches Czech numbers written as 3-3-3 or 3-2-2-2
	// digit groups with an optional +420 prefix.
	rawPhonePattern = regexp.MustCompile(`(?:\+420[-\s]?)?(?:\d{3}[-\s]?\d{3}[-\s]?\d{3}|\d{3}[-\s]?\d{2}[-\s]?\d{2}[-\s]?\d{2})`)
)

// inline elements do not separate words in rendered text.
var inline = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Bdi: true, atom.Bdo: true,
	atom.Cite: true, atom.Code: true, atom.Data: true, atom.Em: true, atom.Font: true,
	atom.I: true, atom.Kbd: true, atom.Mark: true, atom.Q: true, atom.S: true,
	atom.Small: true, atom.Span: true, atom.Strong: true, atom.Sub: true, atom.Sup: true,
	atom.Time: true, atom.U: true,
}

// ParseDocument parses page HTML.
func ParseDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

// VisibleText renders the text a visitor would see, plus the targets of
// mailto: and tel: links, with whitespace collapsed.
func VisibleText(doc *goquery.Document) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			case atom.A:
				if target := contactHref(n); target != "" {
					sb.WriteString(" " + target + " ")
				}
			}
		}

		sep := n.Type == html.ElementNode && !inline[n.DataAtom]
		if sep {
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if sep {
			sb.WriteByte(' ')
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func contactHref(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key != "href" {
			continue
		}
		href := strings.TrimSpace(a.Val)
		lower := strings.ToLower(href)
		var target string
		switch {
		case strings.HasPrefix(lower, "mailto:"):
			target = href[len("mailto:"):]
		case strings.HasPrefix(lower, "tel:"):
			target = href[len("tel:"):]
		default:
			return ""
		}
		if i := strings.IndexByte(target, '?'); i >= 0 {
			target = target[:i]
		}
		if unescaped, err := url.PathUnescape(target); err == nil {
			target = unescaped
		}
		return target
	}
	return ""
}

// ExtractContacts returns the distinct raw email and phone candidates in
// text, in order of first appearance.
func ExtractContacts(text string) (emails, phones []string) {
	return distinct(rawEmailPattern.FindAllString(text, -1)),
		distinct(rawPhonePattern.FindAllString(text, -1))
}

func distinct(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
