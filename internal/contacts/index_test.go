package contacts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/contact-cli/internal/model"
)

func TestIndex(t *testing.T) {
	scraped := BuildScraped(samplePages())
	maps := []model.MapsContact{
		{Website: "www.obec.cz", Value: "+420605123456"},
		{Website: "www.jina.cz", Value: "+420777123456"},
	}
	ix := NewIndex(scraped, maps)

	assert.True(t, ix.InScraped("+420605123456"))
	assert.True(t, ix.InScraped("info@obec.cz"))
	assert.False(t, ix.InScraped("+420777123456"))
	assert.True(t, ix.InMaps("+420777123456"))
	assert.False(t, ix.InMaps("info@obec.cz"))

	rows := ix.ScrapedFor("obec.cz")
	assert.Len(t, rows, 4)
	for _, r := range rows {
		assert.Equal(t, "https://www.obec.cz", r.Website)
	}
	assert.Equal(t, "+420222333444", rows[0].Value)
	assert.Equal(t, "starosta@obec.cz", rows[3].Value)

	assert.Equal(t, []model.MapsContact{{Website: "www.obec.cz", Value: "+420605123456"}}, ix.MapsFor("www.obec.cz"))
	assert.Empty(t, ix.ScrapedFor(""))
	assert.Empty(t, ix.MapsFor("nikde.cz"))
	assert.Len(t, ix.Scraped(), len(scraped))
	assert.Len(t, ix.Maps(), 2)
}

func TestIndex_SubstringAcrossWebsites(t *testing.T) {
	scraped := []model.ContactRecord{
		{Website: "https://www.obec.cz", Value: "+420605123456", Type: model.ContactPhone},
		{Website: "https://www.obec.cz/urad", Value: "+420605123456", Type: model.ContactPhone},
		{Website: "https://www.obec.cz", Value: "info@obec.cz", Type: model.ContactEmail},
	}
	ix := NewIndex(scraped, nil)

	// Rows come back in relation order even when grouped under two keys.
	assert.Equal(t, scraped, ix.ScrapedFor("www.obec.cz"))
	assert.Equal(t, scraped[1:2], ix.ScrapedFor("obec.cz/urad"))
}
