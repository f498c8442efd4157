package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsContactAnchor(t *testing.T) {
	for _, text := range []string{"Kontakt", "KONTAKTY", "Contact us", "O nás", "o-nas", "kdo-jsem"} {
		assert.True(t, IsContactAnchor(text), text)
	}
	for _, text := range []string{"Úvod", "Aktuality", "Úřední deska", ""} {
		assert.False(t, IsContactAnchor(text), text)
	}
}

func TestContactLinks(t *testing.T) {
	doc, err := ParseDocument(`<html><body>
<a href="/">Úvod</a>
<a href="/kontakt">Kontakt</a>
<a href="https://www.obec.cz/kontakt#mapa">Kontakty</a>
<a href="o-nas.html">O nás</a>
<a href="mailto:info@obec.cz">Kontakt e-mailem</a>
<a href="javascript:void(0)">Contact</a>
<a>Kontakt bez odkazu</a>
<a href="https://partner.cz/contact">Contact partner</a>
</body></html>`)
	require.NoError(t, err)

	links := ContactLinks(doc, "https://www.obec.cz/uvod/")
	assert.Equal(t, []string{
		"https://www.obec.cz/kontakt",
		"https://www.obec.cz/uvod/o-nas.html",
		"https://partner.cz/contact",
	}, links)
}

func TestContactLinks_None(t *testing.T) {
	doc, err := ParseDocument(`<html><body><p>Bez odkazů</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, ContactLinks(doc, "https://www.obec.cz"))
}
