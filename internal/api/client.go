// Package api is a client for the Al Adhan prayer times service, the
// external source of daily timetables.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// Query identifies a location and calculation setup. Method and School of
// -1 leave the choice to the API.
type Query struct {
	Latitude  float64
	Longitude float64
	City      string
	Country   string
	Method    int
	School    int
}

// ByCity reports whether the query addresses a city rather than coordinates.
func (q Query) ByCity() bool {
	return q.City != ""
}

func (q Query) params() url.Values {
	params := url.Values{}
	if q.ByCity() {
		params.Set("city", q.City)
		params.Set("country", q.Country)
	} else {
		params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', 6, 64))
		params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', 6, 64))
	}
	if q.Method >= 0 {
		params.Set("method", strconv.Itoa(q.Method))
	}
	if q.School >= 0 {
		params.Set("school", strconv.Itoa(q.School))
	}
	return params
}

// Client communicates with the Al Adhan prayer times API.
type Client struct {
	httpClient *http.Client
	// BaseURL is the API base URL. Defaults to the Al Adhan API.
	// Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a new API client with sensible defaults.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BaseURL: defaultBaseURL,
	}
}

// FetchDay fetches the timings for one date, by city or by coordinates
// depending on the query.
func (c *Client) FetchDay(ctx context.Context, date time.Time, q Query) (*Response, error) {
	path := "timings"
	if q.ByCity() {
		path = "timingsByCity"
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.BaseURL, path, date.Format("02-01-2006"))

	var resp Response
	if err := c.doRequest(ctx, endpoint, q.params(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, fmt.Errorf("API error: code=%d status=%s", resp.Code, resp.Status)
	}
	return &resp, nil
}

// FetchMonth fetches a whole month of timings in one request.
func (c *Client) FetchMonth(ctx context.Context, year, month int, q Query) (*CalendarResponse, error) {
	path := "calendar"
	if q.ByCity() {
		path = "calendarByCity"
	}
	endpoint := fmt.Sprintf("%s/%s/%d/%d", c.BaseURL, path, year, month)

	var resp CalendarResponse
	if err := c.doRequest(ctx, endpoint, q.params(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, fmt.Errorf("API error: code=%d status=%s", resp.Code, resp.Status)
	}
	return &resp, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}
