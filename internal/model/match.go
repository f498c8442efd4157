package model

// MatchStatus is the reconciliation outcome for one organization. After the
// merge step a replacement tier replaces the plain unmatched status.
type MatchStatus string

const (
	StatusMatched   MatchStatus = "matched"
	StatusUnmatched MatchStatus = "unmatched"
)

// Tier labels the strength of a proposed replacement contact.
type Tier string

const (
	TierNone               Tier = ""
	TierBothMatchWithEmail Tier = "new_contact_both_match_with_email"
	TierBothMatch          Tier = "new_contact_both_match"
	TierEmailMatch         Tier = "new_email_match"
	TierPhoneMatch         Tier = "new_phone_match"
)

// Corroboration labels, listed in their output order.
const (
	SourceMapsPhone    = "maps_contacts_telefon"
	SourceScrapedEmail = "scraped_contacts_email"
	SourceScrapedPhone = "scraped_contacts_telefon"
)

// Candidate is one proposed replacement value.
type Candidate struct {
	Value string      `json:"value"`
	Type  ContactType `json:"type"`
}

// MatchResult is the reconciliation verdict for one organization.
type MatchResult struct {
	Status      MatchStatus `json:"status"`
	Sources     []string    `json:"sources,omitempty"`
	Tier        Tier        `json:"tier,omitempty"`
	Candidates  []Candidate `json:"candidates,omitempty"`
	FilledEmail string      `json:"filled_email,omitempty"`
	FilledPhone string      `json:"filled_phone,omitempty"`
}

// CandidateValues returns the candidate values in proposal order.
func (m MatchResult) CandidateValues() []string {
	out := make([]string, len(m.Candidates))
	for i, c := range m.Candidates {
		out[i] = c.Value
	}
	return out
}

// ReconciledRecord pairs an organization with its verdict.
type ReconciledRecord struct {
	Organization Organization `json:"organization"`
	Match        MatchResult  `json:"match"`
}
