// Package mapy is a minimal client for the Mapy.cz REST geocoding API.
package mapy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://api.mapy.cz/v1"
	defaultLimit   = 15

	// TypeStreet marks a street entry in an item's regional structure.
	TypeStreet = "regional.street"
)

// Client geocodes free-text queries.
type Client interface {
	Geocode(ctx context.Context, query string) ([]Item, error)
}

// Item is one geocoding hit.
type Item struct {
	Name              string     `json:"name"`
	Label             string     `json:"label"`
	Location          Location   `json:"location"`
	RegionalStructure []Regional `json:"regionalStructure"`
}

// Location is a WGS84 point.
type Location struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Regional is one level of an item's administrative hierarchy.
type Regional struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Streets returns the street names found in the items' regional structures.
func Streets(items []Item) []string {
	var out []string
	for _, it := range items {
		for _, r := range it.RegionalStructure {
			if r.Type == TypeStreet {
				out = append(out, r.Name)
			}
		}
	}
	return out
}

type geocodeResponse struct {
	Items []Item `json:"items"`
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "mapy: unexpected status " + strconv.Itoa(e.StatusCode)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimit sets the maximum number of items per query.
func WithLimit(n int) Option {
	return func(c *httpClient) {
		c.limit = n
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	limit   int
	http    *http.Client
}

// NewClient creates a Mapy.cz client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		limit:   defaultLimit,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Geocode(ctx context.Context, query string) ([]Item, error) {
	params := url.Values{
		"apikey": {c.apiKey},
		"query":  {query},
		"lang":   {"cs"},
		"limit":  {strconv.Itoa(c.limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "mapy: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "mapy: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "mapy: read body")
	}

	var out geocodeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "mapy: parse response")
	}
	return out.Items, nil
}
