package model

// ContactType distinguishes phone and email contact values.
type ContactType string

const (
	ContactPhone ContactType = "Phone"
	ContactEmail ContactType = "Email"
)

// ContactRecord is one normalized contact found on an organization's website.
// (Website, Value) is unique within a scraped relation.
type ContactRecord struct {
	Website    string      `json:"website"`
	SourcePage string      `json:"source_page"`
	Value      string      `json:"value"`
	Type       ContactType `json:"type"`
}

// MapsContact is one canonical phone reported by the places API for a website.
type MapsContact struct {
	Website string `json:"website"`
	Value   string `json:"value"`
}

// Placeholder values the places lookup writes when nothing was found.
const (
	MapsNotFound = "Not found"
	MapsNoPhone  = "No phone number available"
)

// MapsResult is one row of the places lookup output.
type MapsResult struct {
	Name            string `json:"name"`
	APIName         string `json:"api_name"`
	Phone           string `json:"phone"`
	PhoneMatch      bool   `json:"phone_match"`
	APIPhone        string `json:"api_phone"`
	Address         string `json:"address"`
	APIAddress      string `json:"api_address"`
	Email           string `json:"email"`
	Web             string `json:"web"`
	APIWeb          string `json:"api_web"`
	APIOpeningHours string `json:"api_opening_hours"`
}
