package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Location holds a coordinate plus the descriptive fields a provider may know.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// Coordinate returns the location's point.
func (l Location) Coordinate() Coordinate {
	return Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Provider supplies the observer's location on demand.
type Provider interface {
	Locate(ctx context.Context) (*Location, error)
}

// Static is a Provider that always returns the same location, used when the
// user gives coordinates explicitly.
type Static Location

// Locate returns the fixed location.
func (s Static) Locate(context.Context) (*Location, error) {
	loc := Location(s)
	if err := loc.Coordinate().Validate(); err != nil {
		return nil, err
	}
	return &loc, nil
}

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

const defaultGeoAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

// IPProvider determines the location from the public IP address using
// ip-api.com. This is a free service that requires no API key.
type IPProvider struct {
	httpClient *http.Client
	// URL is exported so tests can point it at an httptest server.
	URL string
}

// NewIPProvider returns an IPProvider with a short timeout.
func NewIPProvider() *IPProvider {
	return &IPProvider{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		URL:        defaultGeoAPIURL,
	}
}

// Locate queries the geolocation service.
func (p *IPProvider) Locate(ctx context.Context) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("geolocation failed: %s", result.Message)
	}

	return &Location{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		City:      result.City,
		Country:   result.Country,
		Timezone:  result.Timezone,
	}, nil
}
