// Package contacts flattens crawl and places output into deduplicated
// contact relations and indexes them for reconciliation.
package contacts

import (
	"sort"

	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/normalize"
)

type contactKey struct {
	website string
	value   string
}

// BuildScraped turns scraped pages into normalized contact records. Phones
// that fail to parse or look like placeholders are dropped. Records are
// unique per (website, value), keeping the first source page; phone rows
// come first sorted by value, then email rows in order of appearance.
func BuildScraped(pages []model.ScrapedPage) []model.ContactRecord {
	var phones, emails []model.ContactRecord
	seen := make(map[contactKey]bool)
	add := func(dst *[]model.ContactRecord, p model.ScrapedPage, value string, typ model.ContactType) {
		k := contactKey{p.BaseWebsite, value}
		if seen[k] {
			return
		}
		seen[k] = true
		*dst = append(*dst, model.ContactRecord{
			Website:    p.BaseWebsite,
			SourcePage: p.URL,
			Value:      value,
			Type:       typ,
		})
	}

	for _, p := range pages {
		for _, raw := range explode(p.Phones) {
			if e164, ok := normalize.CanonicalPhone(raw); ok {
				add(&phones, p, e164, model.ContactPhone)
			}
		}
		for _, raw := range explode(p.Emails) {
			for _, email := range normalize.Emails(raw) {
				add(&emails, p, email, model.ContactEmail)
			}
		}
	}

	sort.SliceStable(phones, func(i, j int) bool { return phones[i].Value < phones[j].Value })
	return append(phones, emails...)
}

// BuildMaps turns places lookup rows into (website, canonical phone) pairs,
// unique per pair and sorted by phone.
func BuildMaps(results []model.MapsResult) []model.MapsContact {
	var out []model.MapsContact
	seen := make(map[contactKey]bool)
	for _, r := range results {
		for _, raw := range model.SplitCell(r.APIPhone) {
			e164, ok := normalize.CanonicalPhone(raw)
			if !ok {
				continue
			}
			k := contactKey{r.Web, e164}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, model.MapsContact{Website: r.Web, Value: e164})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// explode splits joined cells so every raw value stands alone.
func explode(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, model.SplitCell(v)...)
	}
	return out
}
