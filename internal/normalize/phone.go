// Package normalize canonicalizes phone numbers, email addresses, website
// URLs and free text so values from different sources compare equal.
package normalize

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers written without an international prefix.
const DefaultRegion = "CZ"

var placeholderZeros = regexp.MustCompile(`0{4,}`)

// Phone is a parsed phone number. When Parsed is false only Raw is set.
type Phone struct {
	Raw            string `json:"raw"`
	E164           string `json:"e164,omitempty"`
	NationalNumber uint64 `json:"national_number,omitempty"`
	CountryCode    int32  `json:"country_code,omitempty"`
	Region         string `json:"region,omitempty"`
	Valid          bool   `json:"valid"`
	Possible       bool   `json:"possible"`
	Parsed         bool   `json:"parsed"`
}

// ParsePhone parses raw assuming DefaultRegion unless it carries its own
// international prefix. Failure yields a Phone with Parsed=false.
func ParsePhone(raw string) Phone {
	p := Phone{Raw: raw}

	s := strings.TrimSpace(raw)
	if s == "" {
		return p
	}

	num, err := phonenumbers.Parse(s, DefaultRegion)
	if err != nil || num.GetNationalNumber() == 0 {
		return p
	}

	p.E164 = phonenumbers.Format(num, phonenumbers.E164)
	p.NationalNumber = num.GetNationalNumber()
	p.CountryCode = num.GetCountryCode()
	p.Region = phonenumbers.GetRegionCodeForNumber(num)
	p.Valid = phonenumbers.IsValidNumber(num)
	p.Possible = phonenumbers.IsPossibleNumber(num)
	p.Parsed = true
	return p
}

// Canonical returns the E.164 form, or "" when parsing failed.
func (p Phone) Canonical() string {
	if !p.Parsed {
		return ""
	}
	return p.E164
}

// IsPlaceholderPhone reports whether s contains four or more consecutive
// zero digits. Such numbers are treated as fake regardless of validity.
func IsPlaceholderPhone(s string) bool {
	return placeholderZeros.MatchString(s)
}

// CanonicalPhone returns the E.164 form of raw when it parses and neither
// the raw input nor its canonical form is a placeholder.
func CanonicalPhone(raw string) (string, bool) {
	if IsPlaceholderPhone(raw) {
		return "", false
	}
	p := ParsePhone(raw)
	if !p.Parsed || IsPlaceholderPhone(p.E164) {
		return "", false
	}
	return p.E164, true
}
