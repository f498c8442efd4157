package model

import "strings"

// Organization is one row of the authoritative database export. The
// registered values are read-only inputs to reconciliation.
type Organization struct {
	Name    string `json:"name"`
	Website string `json:"website"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`

	// Row holds every cell of the source row in header order so output
	// tables can reproduce the original columns.
	Row []string `json:"row,omitempty"`
}

// HasWebsite reports whether the organization can be crawled.
func (o Organization) HasWebsite() bool {
	return !Missing(o.Website)
}

// Missing reports whether a registered value is absent. Exports carry
// empty cells and textual null markers interchangeably.
func Missing(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "nan", "null", "none", "n/a":
		return true
	}
	return false
}
