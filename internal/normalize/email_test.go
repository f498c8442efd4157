package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "Volejte nám na 605 123 456", nil},
		{"single", "info@firma.cz", []string{"info@firma.cz"}},
		{"lowercases", "Pište na INFO@Firma.CZ", []string{"info@firma.cz"}},
		{"keeps order and duplicates", "a@x.cz, b@x.cz; a@x.cz", []string{"a@x.cz", "b@x.cz", "a@x.cz"}},
		{"mailto prefix", "mailto:obchod@firma.com", []string{"obchod@firma.com"}},
		{"trailing noise after cz", "info@org.cz.hithere", []string{"info@org.cz"}},
		{"trailing noise after com", "sales@shop.com.Kontakt", []string{"sales@shop.com"}},
		{"cz inside label is kept", "info@firma.czech.cz", []string{"info@firma.czech.cz"}},
		{"local part is not truncated", "jan.cz@firma.eu", []string{"jan.cz@firma.eu"}},
		{"unknown tld untouched", "office@firma.sk", []string{"office@firma.sk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Emails(tt.text))
		})
	}
}

func TestEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "info@org.cz", Email("info@org.cz.hithere"))
	assert.Equal(t, "a@x.cz", Email("a@x.cz, b@x.cz"))
	assert.Empty(t, Email("nan"))
	assert.Empty(t, Email(""))
}
