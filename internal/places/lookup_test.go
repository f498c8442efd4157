package places

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/resilience"
	"github.com/sells-group/contact-cli/pkg/google"
	gmocks "github.com/sells-group/contact-cli/pkg/google/mocks"
	"github.com/sells-group/contact-cli/pkg/mapy"
	mmocks "github.com/sells-group/contact-cli/pkg/mapy/mocks"
)

func testOptions() Options {
	return Options{
		PoolWidth: 2,
		Retry:     resilience.RetryConfig{MaxAttempts: 2},
		Breaker:   resilience.CircuitBreakerConfig{FailureThreshold: 100},
	}
}

func lhota() model.Organization {
	return model.Organization{
		Name:    "Obec Lhota",
		Website: "www.lhota.cz",
		Phone:   "+420 605 123 456, 777 000 111",
		Email:   "obec@lhota.cz",
		Address: "Hlavní 1, 123 45 Lhota",
	}
}

func streetItems(names ...string) []mapy.Item {
	var regional []mapy.Regional
	for _, n := range names {
		regional = append(regional, mapy.Regional{Name: n, Type: mapy.TypeStreet})
	}
	return []mapy.Item{{Name: "x", RegionalStructure: regional}}
}

func queryFor(q string) google.TextSearchRequest {
	return google.TextSearchRequest{TextQuery: q, LanguageCode: "cs", RegionCode: "CZ", MaxResultCount: 1}
}

func TestQuery_StreetConfirmed(t *testing.T) {
	m := mmocks.NewMockClient(t)
	m.On("Geocode", mock.Anything, "Obec Lhota").Return(streetItems("Polní", "HLAVNÍ"), nil)

	l := New(gmocks.NewMockClient(t), m, testOptions())
	assert.Equal(t, "Obec Lhota Hlavní 1, 123 45 Lhota", l.Query(context.Background(), lhota()))
}

func TestQuery_StreetNotConfirmed(t *testing.T) {
	m := mmocks.NewMockClient(t)
	m.On("Geocode", mock.Anything, "Obec Lhota").Return(streetItems("Polní"), nil)

	l := New(gmocks.NewMockClient(t), m, testOptions())
	assert.Equal(t, "Obec Lhota", l.Query(context.Background(), lhota()))
}

func TestQuery_GeocodeErrorFallsBackToName(t *testing.T) {
	m := mmocks.NewMockClient(t)
	m.On("Geocode", mock.Anything, "Obec Lhota").Return(nil, errors.New("boom"))

	l := New(gmocks.NewMockClient(t), m, testOptions())
	assert.Equal(t, "Obec Lhota", l.Query(context.Background(), lhota()))
}

func TestQuery_NoMapyClient(t *testing.T) {
	l := New(gmocks.NewMockClient(t), nil, testOptions())
	assert.Equal(t, "Obec Lhota", l.Query(context.Background(), lhota()))
}

func TestResolve_Found(t *testing.T) {
	g := gmocks.NewMockClient(t)
	g.On("TextSearch", mock.Anything, queryFor("Obec Lhota")).Return(&google.TextSearchResponse{
		Places: []google.Place{{
			DisplayName:         google.DisplayName{Text: "Obecní úřad Lhota"},
			FormattedAddress:    "Hlavní 1, 123 45 Lhota, Česko",
			NationalPhoneNumber: "605 123 456",
			WebsiteURI:          "https://www.lhota.cz/",
			RegularOpeningHours: &google.OpeningHours{WeekdayDescriptions: []string{"po: 8-12", "út: 8-12"}},
		}},
	}, nil)

	l := New(g, nil, testOptions())
	res := l.Resolve(context.Background(), lhota())

	assert.Equal(t, "Obec Lhota", res.Name)
	assert.Equal(t, "Obecní úřad Lhota", res.APIName)
	assert.Equal(t, "605 123 456", res.APIPhone)
	assert.True(t, res.PhoneMatch)
	assert.Equal(t, "Hlavní 1, 123 45 Lhota, Česko", res.APIAddress)
	assert.Equal(t, "https://www.lhota.cz/", res.APIWeb)
	assert.Equal(t, "po: 8-12; út: 8-12", res.APIOpeningHours)
	assert.Equal(t, "www.lhota.cz", res.Web)
}

func TestResolve_NoPlaces(t *testing.T) {
	g := gmocks.NewMockClient(t)
	g.On("TextSearch", mock.Anything, queryFor("Obec Lhota")).Return(&google.TextSearchResponse{}, nil)

	res := New(g, nil, testOptions()).Resolve(context.Background(), lhota())
	assert.Equal(t, model.MapsNotFound, res.APIAddress)
	assert.Equal(t, model.MapsNoPhone, res.APIPhone)
	assert.False(t, res.PhoneMatch)
}

func TestResolve_PlaceWithoutPhone(t *testing.T) {
	g := gmocks.NewMockClient(t)
	g.On("TextSearch", mock.Anything, mock.Anything).Return(&google.TextSearchResponse{
		Places: []google.Place{{FormattedAddress: "Lhota"}},
	}, nil)

	res := New(g, nil, testOptions()).Resolve(context.Background(), lhota())
	assert.Equal(t, "Lhota", res.APIAddress)
	assert.Equal(t, model.MapsNoPhone, res.APIPhone)
}

func TestResolve_RetriesTransientThenSucceeds(t *testing.T) {
	g := gmocks.NewMockClient(t)
	g.On("TextSearch", mock.Anything, mock.Anything).
		Return(nil, &google.APIError{StatusCode: 503}).Once()
	g.On("TextSearch", mock.Anything, mock.Anything).
		Return(&google.TextSearchResponse{Places: []google.Place{{FormattedAddress: "Lhota"}}}, nil).Once()

	res := New(g, nil, testOptions()).Resolve(context.Background(), lhota())
	assert.Equal(t, "Lhota", res.APIAddress)
}

func TestResolve_PermanentErrorNotRetried(t *testing.T) {
	g := gmocks.NewMockClient(t)
	g.On("TextSearch", mock.Anything, mock.Anything).
		Return(nil, &google.APIError{StatusCode: 403}).Once()

	res := New(g, nil, testOptions()).Resolve(context.Background(), lhota())
	assert.Equal(t, model.MapsNotFound, res.APIAddress)
}

func TestRun_SkipsOrganizationsWithoutWebsite(t *testing.T) {
	g := gmocks.NewMockClient(t)
	g.On("TextSearch", mock.Anything, queryFor("Obec Lhota")).
		Return(&google.TextSearchResponse{Places: []google.Place{{FormattedAddress: "Lhota"}}}, nil)
	g.On("TextSearch", mock.Anything, queryFor("Spolek")).
		Return(nil, errors.New("network down"))

	orgs := []model.Organization{
		lhota(),
		{Name: "Bez webu", Website: ""},
		{Name: "Spolek", Website: "spolek.cz"},
		{Name: "Nan", Website: "nan"},
	}
	results, err := New(g, nil, testOptions()).Run(context.Background(), orgs)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Obec Lhota", results[0].Name)
	assert.Equal(t, "Lhota", results[0].APIAddress)
	assert.Equal(t, "Spolek", results[1].Name)
	assert.Equal(t, model.MapsNotFound, results[1].APIAddress)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := gmocks.NewMockClient(t)
	g.On("TextSearch", mock.Anything, mock.Anything).Return(nil, context.Canceled).Maybe()

	_, err := New(g, nil, testOptions()).Run(ctx, []model.Organization{lhota()})
	assert.Error(t, err)
}

func TestPhoneMatch(t *testing.T) {
	tests := []struct {
		name       string
		api        string
		registered string
		want       bool
	}{
		{"canonical match", "605 123 456", "+420605123456", true},
		{"one of several", "+420 777 000 111", "605 123 456; 777000111", true},
		{"no match", "605 123 457", "605 123 456", false},
		{"placeholder", model.MapsNoPhone, "605 123 456", false},
		{"empty api", "", "605 123 456", false},
		{"raw fallback", "neuvedeno", "neuvedeno, 605 123 456", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhoneMatch(tt.api, tt.registered))
		})
	}
}
