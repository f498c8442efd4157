package dataset

import (
	"strconv"

	"github.com/sells-group/contact-cli/internal/model"
)

var mapsHeader = []string{
	"Name", "API_Name", "Phone", "Phone Match", "API_Phone", "Address",
	"API_Address", "Email", "Web", "API_Web", "API_Opening Hours",
}

// WriteMaps writes the places lookup results.
func WriteMaps(path string, results []model.MapsResult) error {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.Name, r.APIName, r.Phone, strconv.FormatBool(r.PhoneMatch), r.APIPhone, r.Address,
			r.APIAddress, r.Email, r.Web, r.APIWeb, r.APIOpeningHours,
		}
	}
	return WriteTable(path, mapsHeader, rows)
}

// ReadMaps loads a places results table. Only Web and API_Phone are
// required; other columns are read when present.
func ReadMaps(path string) ([]model.MapsResult, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if _, err := t.columns("Web", "API_Phone"); err != nil {
		return nil, err
	}

	col := make(map[string]int, len(mapsHeader))
	for _, h := range mapsHeader {
		col[h] = t.Index(h)
	}

	out := make([]model.MapsResult, 0, len(t.Rows))
	for _, row := range t.Rows {
		get := func(h string) string { return Cell(row, col[h]) }
		match, _ := strconv.ParseBool(get("Phone Match"))
		out = append(out, model.MapsResult{
			Name:            get("Name"),
			APIName:         get("API_Name"),
			Phone:           get("Phone"),
			PhoneMatch:      match,
			APIPhone:        get("API_Phone"),
			Address:         get("Address"),
			APIAddress:      get("API_Address"),
			Email:           get("Email"),
			Web:             get("Web"),
			APIWeb:          get("API_Web"),
			APIOpeningHours: get("API_Opening Hours"),
		})
	}
	return out, nil
}
