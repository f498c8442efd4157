package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-cli/internal/contacts"
	"github.com/sells-group/contact-cli/internal/model"
)

func engineFor(pages []model.ScrapedPage, maps []model.MapsContact) *Engine {
	return NewEngine(contacts.NewIndex(contacts.BuildScraped(pages), maps))
}

func TestMatch_ScrapedPhoneCorroborates(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.firma.cz", URL: "https://www.firma.cz",
		Phones: []string{"+420605123456"},
	}}, nil)

	res := e.Match(model.Organization{Name: "Firma", Website: "firma.cz", Phone: "605123456"})
	assert.Equal(t, model.StatusMatched, res.Status)
	assert.Equal(t, []string{model.SourceScrapedPhone}, res.Sources)
	assert.Equal(t, model.TierNone, res.Tier)
	assert.Empty(t, res.Candidates)
}

func TestMatch_AllSourcesInFixedOrder(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.firma.cz", URL: "https://www.firma.cz",
		Emails: []string{"info@firma.cz"},
		Phones: []string{"605 123 456"},
	}}, []model.MapsContact{{Website: "firma.cz", Value: "+420605123456"}})

	res := e.Match(model.Organization{Website: "firma.cz", Phone: "+420 605 123 456", Email: "INFO@firma.cz"})
	assert.Equal(t, model.StatusMatched, res.Status)
	assert.Equal(t, []string{model.SourceMapsPhone, model.SourceScrapedEmail, model.SourceScrapedPhone}, res.Sources)
}

func TestMatch_EmailNeverCheckedAgainstMaps(t *testing.T) {
	e := engineFor(nil, []model.MapsContact{{Website: "firma.cz", Value: "info@firma.cz"}})

	res := e.DirectMatch(model.Organization{Website: "firma.cz", Email: "info@firma.cz"})
	assert.Equal(t, model.StatusUnmatched, res.Status)
	assert.Empty(t, res.Sources)
}

func TestMatch_MultipleRegisteredPhones(t *testing.T) {
	e := engineFor(nil, []model.MapsContact{{Website: "obec.cz", Value: "+420222333444"}})

	res := e.DirectMatch(model.Organization{Phone: "605 123 456; 222 333 444"})
	assert.Equal(t, model.StatusMatched, res.Status)
	assert.Equal(t, []string{model.SourceMapsPhone}, res.Sources)
}

func TestMatch_BothMatchWithEmailFillsEmailGap(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.x.cz", URL: "https://www.x.cz/kontakt",
		Emails: []string{"info@x.cz", "sales@x.cz"},
	}}, []model.MapsContact{{Website: "x.cz", Value: "info@x.cz"}})

	org := model.Organization{Name: "X", Website: "x.cz", Phone: "", Email: ""}
	res := e.Match(org)

	assert.Equal(t, model.MatchStatus(model.TierBothMatchWithEmail), res.Status)
	assert.Equal(t, model.TierBothMatchWithEmail, res.Tier)
	assert.Equal(t, []string{"info@x.cz", "info@x.cz", "sales@x.cz"}, res.CandidateValues())
	assert.Equal(t, "info@x.cz", res.FilledEmail)
	assert.Equal(t, "info@x.cz", res.FilledPhone, "each gap takes the first candidate")
}

func TestMatch_BothMatchPhoneFillsPhoneGap(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.x.cz", URL: "https://www.x.cz",
		Phones: []string{"222 333 444", "605 123 456"},
	}}, []model.MapsContact{{Website: "x.cz", Value: "+420605123456"}})

	res := e.Match(model.Organization{Website: "x.cz", Phone: "nan", Email: "stary@x.cz"})
	assert.Equal(t, model.MatchStatus(model.TierBothMatch), res.Status)
	assert.Equal(t, []string{"+420605123456"}, res.CandidateValues())
	assert.Equal(t, "+420605123456", res.FilledPhone)
	assert.Empty(t, res.FilledEmail, "present email is never replaced")
}

func TestMatch_EmailMatch(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.x.cz", URL: "https://www.x.cz",
		Emails: []string{"obec@x.cz"},
		Phones: []string{"605 123 456"},
	}}, nil)

	res := e.Match(model.Organization{Website: "x.cz", Phone: "777 888 999", Email: ""})
	assert.Equal(t, model.MatchStatus(model.TierEmailMatch), res.Status)
	assert.Equal(t, []string{"obec@x.cz"}, res.CandidateValues())
	assert.Equal(t, "obec@x.cz", res.FilledEmail)
	assert.Empty(t, res.FilledPhone)
}

func TestMatch_PhoneMatch(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.x.cz", URL: "https://www.x.cz",
		Phones: []string{"605 123 456", "222 333 444"},
	}}, nil)

	res := e.Match(model.Organization{Website: "x.cz"})
	assert.Equal(t, model.MatchStatus(model.TierPhoneMatch), res.Status)
	assert.Equal(t, []string{"+420222333444", "+420605123456"}, res.CandidateValues())
	assert.Equal(t, "+420222333444", res.FilledPhone)
	assert.Equal(t, "+420222333444", res.FilledEmail)
}

func TestMatch_EmailMatchFillsPhoneGapInCandidateOrder(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.x.cz", URL: "https://www.x.cz/kontakt",
		Emails: []string{"info@x.cz"},
	}}, nil)

	res := e.Match(model.Organization{Website: "x.cz", Email: "stary@x.cz"})
	assert.Equal(t, model.MatchStatus(model.TierEmailMatch), res.Status)
	assert.Equal(t, "info@x.cz", res.FilledPhone)
	assert.Empty(t, res.FilledEmail, "present email is never replaced")
}

func TestMerge_SkipsMissingCandidates(t *testing.T) {
	res := Merge(model.Organization{}, model.MatchResult{
		Status: model.StatusUnmatched,
		Tier:   model.TierPhoneMatch,
		Candidates: []model.Candidate{
			{Value: "nan", Type: model.ContactPhone},
			{Value: "+420605123456", Type: model.ContactPhone},
		},
	})
	assert.Equal(t, "+420605123456", res.FilledPhone)
	assert.Equal(t, "+420605123456", res.FilledEmail)
}

func TestMatch_NoEvidenceStaysUnmatched(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.jina.cz", URL: "https://www.jina.cz",
		Emails: []string{"info@jina.cz"},
	}}, nil)

	res := e.Match(model.Organization{Website: "x.cz", Phone: "605123456"})
	assert.Equal(t, model.StatusUnmatched, res.Status)
	assert.Equal(t, model.TierNone, res.Tier)
	assert.Empty(t, res.Candidates)
}

func TestMatch_BlankWebsiteSkipsReplacement(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.x.cz", URL: "https://www.x.cz",
		Emails: []string{"info@x.cz"},
	}}, nil)

	res := e.Match(model.Organization{Website: "  "})
	assert.Equal(t, model.StatusUnmatched, res.Status)
	assert.Empty(t, res.Candidates)
}

func TestMatch_NullMarkerWebsiteSkipsReplacement(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.finance.cz", URL: "https://www.finance.cz",
		Emails: []string{"info@finance.cz"},
		Phones: []string{"605 123 456"},
	}}, []model.MapsContact{{Website: "https://www.finance.cz", Value: "+420605123456"}})

	for _, website := range []string{"nan", "NaN", "null", "none", "n/a"} {
		t.Run(website, func(t *testing.T) {
			res := e.Match(model.Organization{Name: "Bez webu", Website: website})
			assert.Equal(t, model.StatusUnmatched, res.Status)
			assert.Equal(t, model.TierNone, res.Tier)
			assert.Empty(t, res.Candidates)
			assert.Empty(t, res.FilledEmail)
			assert.Empty(t, res.FilledPhone)
		})
	}
}

func TestDecide_ExactlyOneOutcome(t *testing.T) {
	email := []model.Candidate{{Value: "a@x.cz", Type: model.ContactEmail}}
	phone := []model.Candidate{{Value: "+420605123456", Type: model.ContactPhone}}

	tests := []struct {
		name                   string
		common, emails, phones []model.Candidate
		want                   model.Tier
	}{
		{"all", phone, email, phone, model.TierBothMatchWithEmail},
		{"common and emails", email, email, nil, model.TierBothMatchWithEmail},
		{"common and phones", phone, nil, phone, model.TierBothMatch},
		{"common only", phone, nil, nil, model.TierBothMatch},
		{"emails and phones", nil, email, phone, model.TierEmailMatch},
		{"emails only", nil, email, nil, model.TierEmailMatch},
		{"phones only", nil, nil, phone, model.TierPhoneMatch},
		{"nothing", nil, nil, nil, model.TierNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, cands := Decide(tt.common, tt.emails, tt.phones)
			assert.Equal(t, tt.want, tier)
			if tier == model.TierNone {
				assert.Empty(t, cands)
			} else {
				assert.NotEmpty(t, cands)
			}
		})
	}
}

func TestReconcile_PreservesOrderAndInputs(t *testing.T) {
	e := engineFor([]model.ScrapedPage{{
		BaseWebsite: "https://www.b.cz", URL: "https://www.b.cz",
		Emails: []string{"info@b.cz"},
		Phones: []string{"605 123 456"},
	}}, nil)

	orgs := []model.Organization{
		{Name: "A", Website: "a.cz", Phone: "777123456"},
		{Name: "B", Website: "b.cz", Phone: "605123456"},
		{Name: "C", Website: "b.cz", Email: ""},
	}
	before := append([]model.Organization(nil), orgs...)

	recs := e.Reconcile(orgs)
	require.Len(t, recs, 3)
	assert.Equal(t, before, orgs)
	assert.Equal(t, "A", recs[0].Organization.Name)
	assert.Equal(t, model.StatusUnmatched, recs[0].Match.Status)
	assert.Equal(t, model.StatusMatched, recs[1].Match.Status)
	assert.Equal(t, model.MatchStatus(model.TierEmailMatch), recs[2].Match.Status)
	assert.Equal(t, "", recs[2].Organization.Email)

	counts := Summarize(recs)
	assert.Equal(t, 1, counts[model.StatusUnmatched])
	assert.Equal(t, 1, counts[model.StatusMatched])
	assert.Equal(t, 1, counts[model.MatchStatus(model.TierEmailMatch)])
}

func TestRegisteredPhones(t *testing.T) {
	assert.Equal(t, []string{"+420605123456", "+420222333444"}, RegisteredPhones("605123456, 222 333 444"))
	assert.Empty(t, RegisteredPhones(""))
	assert.Empty(t, RegisteredPhones("nan"))
	assert.Empty(t, RegisteredPhones("000 000 0000"))
}
