package dataset

import (
	"github.com/sells-group/contact-cli/internal/model"
)

var contactsHeader = []string{"Base_Website", "Scraped_Page", "Contact", "Contact_type"}

// WriteContacts writes the scraped contact relation.
func WriteContacts(path string, contacts []model.ContactRecord) error {
	rows := make([][]string, len(contacts))
	for i, c := range contacts {
		rows[i] = []string{c.Website, c.SourcePage, c.Value, string(c.Type)}
	}
	return WriteTable(path, contactsHeader, rows)
}

// ReadContacts loads a contact table written by WriteContacts.
func ReadContacts(path string) ([]model.ContactRecord, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	idx, err := t.columns(contactsHeader...)
	if err != nil {
		return nil, err
	}

	out := make([]model.ContactRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.ContactRecord{
			Website:    Cell(row, idx[0]),
			SourcePage: Cell(row, idx[1]),
			Value:      Cell(row, idx[2]),
			Type:       model.ContactType(Cell(row, idx[3])),
		})
	}
	return out, nil
}
