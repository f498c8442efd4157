package contacts

import (
	"sort"

	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/normalize"
)

// Index answers membership and per-website queries over the scraped and
// maps relations. It is read-only once built and safe for concurrent use.
type Index struct {
	scraped []model.ContactRecord
	maps    []model.MapsContact

	scrapedValues map[string]struct{}
	mapsValues    map[string]struct{}
	scrapedSites  siteRows
	mapsSites     siteRows
}

// siteRows groups row positions by website key.
type siteRows struct {
	sites []string
	rows  map[string][]int
}

func (s *siteRows) add(site string, row int) {
	if s.rows == nil {
		s.rows = make(map[string][]int)
	}
	if _, ok := s.rows[site]; !ok {
		s.sites = append(s.sites, site)
	}
	s.rows[site] = append(s.rows[site], row)
}

// matching returns, in relation order, the rows whose website contains registered.
func (s *siteRows) matching(registered string) []int {
	var out []int
	for _, site := range s.sites {
		if normalize.ContainsWebsite(site, registered) {
			out = append(out, s.rows[site]...)
		}
	}
	sort.Ints(out)
	return out
}

// NewIndex indexes both relations. The two are kept separate.
func NewIndex(scraped []model.ContactRecord, maps []model.MapsContact) *Index {
	ix := &Index{
		scraped:       scraped,
		maps:          maps,
		scrapedValues: make(map[string]struct{}, len(scraped)),
		mapsValues:    make(map[string]struct{}, len(maps)),
	}
	for i, r := range scraped {
		ix.scrapedValues[r.Value] = struct{}{}
		ix.scrapedSites.add(r.Website, i)
	}
	for i, r := range maps {
		ix.mapsValues[r.Value] = struct{}{}
		ix.mapsSites.add(r.Website, i)
	}
	return ix
}

// InScraped reports whether value was scraped from any website.
func (ix *Index) InScraped(value string) bool {
	_, ok := ix.scrapedValues[value]
	return ok
}

// InMaps reports whether value was returned by the places lookup.
func (ix *Index) InMaps(value string) bool {
	_, ok := ix.mapsValues[value]
	return ok
}

// ScrapedFor returns scraped rows whose website contains registered.
func (ix *Index) ScrapedFor(registered string) []model.ContactRecord {
	rows := ix.scrapedSites.matching(registered)
	out := make([]model.ContactRecord, len(rows))
	for i, r := range rows {
		out[i] = ix.scraped[r]
	}
	return out
}

// MapsFor returns maps rows whose website contains registered.
func (ix *Index) MapsFor(registered string) []model.MapsContact {
	rows := ix.mapsSites.matching(registered)
	out := make([]model.MapsContact, len(rows))
	for i, r := range rows {
		out[i] = ix.maps[r]
	}
	return out
}

// Scraped returns the scraped relation.
func (ix *Index) Scraped() []model.ContactRecord { return ix.scraped }

// Maps returns the maps relation.
func (ix *Index) Maps() []model.MapsContact { return ix.maps }
