package dataset

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-cli/internal/model"
)

// ErrMissingColumn is returned when the export lacks a required column.
var ErrMissingColumn = eris.New("dataset: missing required column")

// Columns names the export headers holding each organization field.
type Columns struct {
	Name    string
	Website string
	Phone   string
	Email   string
	Address string
}

// Export is the loaded database export.
type Export struct {
	Header        []string
	Organizations []model.Organization

	phoneCol int
	emailCol int
}

// LoadOrganizations reads the database export at path. Every configured
// column must be present; otherwise the error wraps ErrMissingColumn and
// nothing downstream may run.
func LoadOrganizations(path string, cols Columns) (*Export, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return FromTable(t, cols)
}

// FromTable maps an already loaded table onto organizations.
func FromTable(t *Table, cols Columns) (*Export, error) {
	idx, err := t.columns(cols.Name, cols.Website, cols.Phone, cols.Email, cols.Address)
	if err != nil {
		return nil, err
	}

	e := &Export{Header: t.Header, phoneCol: idx[2], emailCol: idx[3]}
	for _, row := range t.Rows {
		e.Organizations = append(e.Organizations, model.Organization{
			Name:    strings.TrimSpace(Cell(row, idx[0])),
			Website: strings.TrimSpace(Cell(row, idx[1])),
			Phone:   strings.TrimSpace(Cell(row, idx[2])),
			Email:   strings.TrimSpace(Cell(row, idx[3])),
			Address: strings.TrimSpace(Cell(row, idx[4])),
			Row:     row,
		})
	}
	return e, nil
}

// CrawlTargets returns the registered websites of organizations that have one.
func (e *Export) CrawlTargets() []string {
	var out []string
	for _, o := range e.Organizations {
		if o.HasWebsite() {
			out = append(out, o.Website)
		}
	}
	return out
}

// Reconciled output columns appended after the original header.
const (
	ColMatched    = "Matched"
	ColSource     = "Source"
	ColNewContact = "New_Contact"
	ColNewMatched = "New_Matched"
)

// WriteReconciled writes the original rows with filled phone and email gaps
// and the four verdict columns appended.
func (e *Export) WriteReconciled(path string, records []model.ReconciledRecord) error {
	header := append(append([]string{}, e.Header...), ColMatched, ColSource, ColNewContact, ColNewMatched)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(e.Header))
		copy(row, r.Organization.Row)
		if r.Match.FilledPhone != "" {
			row[e.phoneCol] = r.Match.FilledPhone
		}
		if r.Match.FilledEmail != "" {
			row[e.emailCol] = r.Match.FilledEmail
		}
		rows = append(rows, append(row,
			string(r.Match.Status),
			strings.Join(r.Match.Sources, model.ListSeparator),
			strings.Join(r.Match.CandidateValues(), model.ListSeparator),
			string(r.Match.Tier),
		))
	}
	return WriteTable(path, header, rows)
}
