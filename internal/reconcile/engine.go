// Package reconcile decides, per organization, whether its registered
// contacts are corroborated by scraped or places data and proposes
// replacements for those that are not.
package reconcile

import (
	"strings"

	"github.com/sells-group/contact-cli/internal/contacts"
	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/normalize"
)

// Engine reconciles organizations against an immutable contact index.
type Engine struct {
	index *contacts.Index
}

// NewEngine creates an Engine over ix.
func NewEngine(ix *contacts.Index) *Engine {
	return &Engine{index: ix}
}

// Reconcile matches every organization, preserving input order. Inputs
// are not modified.
func (e *Engine) Reconcile(orgs []model.Organization) []model.ReconciledRecord {
	out := make([]model.ReconciledRecord, len(orgs))
	for i, org := range orgs {
		out[i] = model.ReconciledRecord{Organization: org, Match: e.Match(org)}
	}
	return out
}

// Match runs both stages and the merge for one organization.
func (e *Engine) Match(org model.Organization) model.MatchResult {
	res := e.DirectMatch(org)
	if res.Status == model.StatusUnmatched {
		res.Tier, res.Candidates = e.Replacement(org)
	}
	return Merge(org, res)
}

// DirectMatch looks the registered phone and email up in both relations.
// Email is only checked against scraped contacts since places data
// carries no emails.
func (e *Engine) DirectMatch(org model.Organization) model.MatchResult {
	phones := RegisteredPhones(org.Phone)
	emails := normalize.Emails(org.Email)

	var sources []string
	if anyIn(phones, e.index.InMaps) {
		sources = append(sources, model.SourceMapsPhone)
	}
	if anyIn(emails, e.index.InScraped) {
		sources = append(sources, model.SourceScrapedEmail)
	}
	if anyIn(phones, e.index.InScraped) {
		sources = append(sources, model.SourceScrapedPhone)
	}

	if len(sources) == 0 {
		return model.MatchResult{Status: model.StatusUnmatched}
	}
	return model.MatchResult{Status: model.StatusMatched, Sources: sources}
}

// Replacement searches the organization's own website rows for a
// replacement contact. Rules are tried in priority order; the first that
// applies wins.
func (e *Engine) Replacement(org model.Organization) (model.Tier, []model.Candidate) {
	if !org.HasWebsite() {
		return model.TierNone, nil
	}
	scraped := e.index.ScrapedFor(org.Website)
	maps := e.index.MapsFor(org.Website)

	var common, emails, phones []model.Candidate
	for _, m := range maps {
		for _, s := range scraped {
			if s.Value == m.Value {
				common = append(common, model.Candidate{Value: s.Value, Type: s.Type})
			}
		}
	}
	for _, s := range scraped {
		c := model.Candidate{Value: s.Value, Type: s.Type}
		switch s.Type {
		case model.ContactEmail:
			emails = append(emails, c)
		case model.ContactPhone:
			phones = append(phones, c)
		}
	}

	return Decide(common, emails, phones)
}

// Decide applies the replacement rules to the gathered evidence.
func Decide(common, emails, phones []model.Candidate) (model.Tier, []model.Candidate) {
	switch {
	case len(common) > 0 && len(emails) > 0:
		out := make([]model.Candidate, 0, len(common)+len(emails))
		return model.TierBothMatchWithEmail, append(append(out, common...), emails...)
	case len(common) > 0:
		return model.TierBothMatch, common
	case len(emails) > 0:
		return model.TierEmailMatch, emails
	case len(phones) > 0:
		return model.TierPhoneMatch, phones
	}
	return model.TierNone, nil
}

// Merge promotes a replacement tier to the status and fills registered
// email and phone gaps, each independently, with the first non-missing
// candidate in replacement order.
// Registered values that are present are never replaced.
func Merge(org model.Organization, res model.MatchResult) model.MatchResult {
	if res.Tier == model.TierNone {
		return res
	}
	res.Status = model.MatchStatus(res.Tier)
	if model.Missing(org.Email) {
		res.FilledEmail = firstCandidate(res.Candidates)
	}
	if model.Missing(org.Phone) {
		res.FilledPhone = firstCandidate(res.Candidates)
	}
	return res
}

// RegisteredPhones returns the canonical forms of a registered phone cell,
// which may hold several numbers separated by commas or semicolons.
func RegisteredPhones(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		if e164, ok := normalize.CanonicalPhone(part); ok {
			out = append(out, e164)
		}
	}
	return out
}

// Summarize counts results per final status.
func Summarize(records []model.ReconciledRecord) map[model.MatchStatus]int {
	counts := make(map[model.MatchStatus]int)
	for _, r := range records {
		counts[r.Match.Status]++
	}
	return counts
}

func anyIn(values []string, in func(string) bool) bool {
	for _, v := range values {
		if in(v) {
			return true
		}
	}
	return false
}

func firstCandidate(cands []model.Candidate) string {
	for _, c := range cands {
		if !model.Missing(c.Value) {
			return c.Value
		}
	}
	return ""
}
