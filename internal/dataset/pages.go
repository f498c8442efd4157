package dataset

import (
	"github.com/sells-group/contact-cli/internal/model"
)

// Pages table columns.
var pagesHeader = []string{"Base_Website", "Scraped_Page", "Page_Type", "Emails", "Phone_Numbers"}

// WritePages writes one row per scraped page.
func WritePages(path string, pages []model.ScrapedPage) error {
	rows := make([][]string, len(pages))
	for i, p := range pages {
		rows[i] = []string{p.BaseWebsite, p.URL, string(p.Role), p.EmailsCell(), p.PhonesCell()}
	}
	return WriteTable(path, pagesHeader, rows)
}

// ReadPages loads a pages table written by WritePages. A page is marked
// fetched when it carries any contact, since fetch status is not stored.
func ReadPages(path string) ([]model.ScrapedPage, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	idx, err := t.columns(pagesHeader...)
	if err != nil {
		return nil, err
	}

	pages := make([]model.ScrapedPage, 0, len(t.Rows))
	for _, row := range t.Rows {
		p := model.ScrapedPage{
			BaseWebsite: Cell(row, idx[0]),
			URL:         Cell(row, idx[1]),
			Role:        model.PageRole(Cell(row, idx[2])),
			Emails:      model.SplitCell(Cell(row, idx[3])),
			Phones:      model.SplitCell(Cell(row, idx[4])),
		}
		p.Fetched = len(p.Emails) > 0 || len(p.Phones) > 0
		pages = append(pages, p)
	}
	return pages, nil
}
