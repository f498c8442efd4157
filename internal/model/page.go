package model

import "strings"

// PageRole identifies why a page was fetched during a crawl session.
type PageRole string

const (
	PageRoleMain    PageRole = "main"
	PageRoleContact PageRole = "contact"
)

// ListSeparator joins multi-valued cells in every tabular output.
const ListSeparator = ", "

// ScrapedPage is the extraction result of a single fetch attempt within one
// organization's crawl session. It is never modified after creation.
type ScrapedPage struct {
	BaseWebsite string   `json:"base_website"`
	URL         string   `json:"url"`
	Role        PageRole `json:"role"`
	Emails      []string `json:"emails"`
	Phones      []string `json:"phones"`
	Fetched     bool     `json:"fetched"`
}

// EmailsCell returns the emails joined for tabular output.
func (p ScrapedPage) EmailsCell() string {
	return strings.Join(p.Emails, ListSeparator)
}

// PhonesCell returns the phones joined for tabular output.
func (p ScrapedPage) PhonesCell() string {
	return strings.Join(p.Phones, ListSeparator)
}

// SplitCell splits a joined cell back into its values, dropping blanks.
func SplitCell(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ListSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CrawlSession is a cached set of pages for one website.
type CrawlSession struct {
	Website string        `json:"website"`
	Pages   []ScrapedPage `json:"pages"`
}

// Complete reports whether the session found at least one email and one phone.
func (s CrawlSession) Complete() bool {
	var emails, phones bool
	for _, p := range s.Pages {
		emails = emails || len(p.Emails) > 0
		phones = phones || len(p.Phones) > 0
	}
	return emails && phones
}
