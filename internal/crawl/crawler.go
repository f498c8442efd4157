// Package crawl runs per-organization crawl sessions and the batch
// orchestration around them.
package crawl

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/scrape"
)

// SiteCrawler crawls one website and returns a page record per fetch.
type SiteCrawler interface {
	CrawlSite(ctx context.Context, website string) []model.ScrapedPage
}

// Crawler fetches a site's root page and the contact pages it links to.
type Crawler struct {
	fetcher scrape.Fetcher
}

// NewCrawler creates a Crawler using the given fetcher.
func NewCrawler(fetcher scrape.Fetcher) *Crawler {
	return &Crawler{fetcher: fetcher}
}

// session is the state of one crawl. It is never shared between crawls.
type session struct {
	website string
	visited map[string]struct{}
	pages   []model.ScrapedPage
}

func newSession(website string) *session {
	return &session{
		website: website,
		visited: map[string]struct{}{website: {}},
	}
}

// CrawlSite fetches website (role main), discovers contact links on it and
// fetches each unvisited one (role contact). Every fetch yields a page
// record, including failed ones.
func (c *Crawler) CrawlSite(ctx context.Context, website string) []model.ScrapedPage {
	s := newSession(website)

	doc := s.fetch(ctx, c.fetcher, website, model.PageRoleMain)
	if doc != nil {
		for _, link := range scrape.ContactLinks(doc, website) {
			if _, ok := s.visited[link]; ok {
				continue
			}
			s.visited[link] = struct{}{}
			s.fetch(ctx, c.fetcher, link, model.PageRoleContact)
		}
	}

	zap.L().Debug("crawled site",
		zap.String("website", website),
		zap.Int("pages", len(s.pages)),
	)
	return s.pages
}

// fetch records one page and returns its parsed document, or nil when the
// fetch failed or the HTML could not be parsed.
func (s *session) fetch(ctx context.Context, f scrape.Fetcher, url string, role model.PageRole) *goquery.Document {
	page := f.Fetch(ctx, url)
	rec := model.ScrapedPage{
		BaseWebsite: s.website,
		URL:         url,
		Role:        role,
		Fetched:     page.OK,
	}
	defer func() { s.pages = append(s.pages, rec) }()

	if !page.OK {
		return nil
	}
	doc, err := scrape.ParseDocument(page.HTML)
	if err != nil {
		zap.L().Debug("unparseable page", zap.String("url", url), zap.Error(err))
		return nil
	}
	rec.Emails, rec.Phones = scrape.ExtractContacts(scrape.VisibleText(doc))
	return doc
}
