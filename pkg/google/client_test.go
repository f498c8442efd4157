package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.nationalPhoneNumber")

		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Obec Lhota Hlavní 1", body.TextQuery)
		assert.Equal(t, "cs", body.LanguageCode)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"places":[{
			"displayName":{"text":"Obecní úřad Lhota","languageCode":"cs"},
			"formattedAddress":"Hlavní 1, 123 45 Lhota, Česko",
			"nationalPhoneNumber":"605 123 456",
			"internationalPhoneNumber":"+420 605 123 456",
			"websiteUri":"https://www.lhota.cz/",
			"regularOpeningHours":{"weekdayDescriptions":["pondělí: 8:00–17:00"]}
		}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{
		TextQuery:    "Obec Lhota Hlavní 1",
		LanguageCode: "cs",
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	p := resp.Places[0]
	assert.Equal(t, "Obecní úřad Lhota", p.DisplayName.Text)
	assert.Equal(t, "Hlavní 1, 123 45 Lhota, Česko", p.FormattedAddress)
	assert.Equal(t, "+420 605 123 456", p.Phone())
	assert.Equal(t, "https://www.lhota.cz/", p.WebsiteURI)
	require.NotNil(t, p.RegularOpeningHours)
	assert.Equal(t, []string{"pondělí: 8:00–17:00"}, p.RegularOpeningHours.WeekdayDescriptions)
}

func TestTextSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "Neexistuje"})

	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestTextSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "x"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "RESOURCE_EXHAUSTED")
}

func TestTextSearch_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "x"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestPlacePhone_FallsBackToNational(t *testing.T) {
	assert.Equal(t, "605 123 456", Place{NationalPhoneNumber: "605 123 456"}.Phone())
	assert.Empty(t, Place{}.Phone())
}
