package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	httpclient "mentormatch/internal/common/http"
	"mentormatch/internal/models"
)

// NominatimClient talks to the OpenStreetMap Nominatim search API.
type NominatimClient struct {
	baseURL     string
	countryName string
	countryCode string
	client      *httpclient.Client
}

type nominatimResult struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

func NewNominatimClient(baseURL, userAgent, countryName, countryCode string, timeout time.Duration) *NominatimClient {
	return &NominatimClient{
		baseURL:     baseURL,
		countryName: countryName,
		countryCode: countryCode,
		client:      httpclient.NewClientWithUserAgent(timeout, userAgent),
	}
}

// Lookup queries Nominatim for a 5-digit postcode. The postcode is sent in
// the regional display form "XXX XX" and constrained to the configured
// country. A result outside that country counts as not found.
func (c *NominatimClient) Lookup(ctx context.Context, postcode string) (*models.Coordinate, error) {
	formatted := postcode[:3] + " " + postcode[3:]

	params := url.Values{}
	params.Set("q", formatted)
	params.Set("country", c.countryName)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	if results[0].Address.CountryCode != c.countryCode {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon: %w", err)
	}

	coord := &models.Coordinate{Lat: lat, Lng: lng}
	if !coord.Valid() {
		return nil, fmt.Errorf("coordinate out of range: %v", coord)
	}
	return coord, nil
}
