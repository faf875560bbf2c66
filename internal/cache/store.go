// Package cache keeps fetched timetables and the detected location so the
// countdown keeps working across restarts and short network outages.
package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
)

// ErrMiss is returned by Store loads when nothing usable is cached.
var ErrMiss = errors.New("cache: miss")

const geoTTL = 24 * time.Hour

// Store is implemented by every cache backend.
type Store interface {
	LoadDay(ctx context.Context, date time.Time, q api.Query) (*DayEntry, error)
	SaveDay(ctx context.Context, date time.Time, q api.Query, data api.Data) error
	LoadMonth(ctx context.Context, year int, month time.Month, q api.Query) (*MonthEntry, error)
	SaveMonth(ctx context.Context, year int, month time.Month, q api.Query, days []api.Data) error
	LoadGeo(ctx context.Context) (*geo.Location, error)
	SaveGeo(ctx context.Context, loc *geo.Location) error
}

// DayEntry stores a day's prayer times along with metadata for validation.
type DayEntry struct {
	Date   string   `json:"date"` // YYYY-MM-DD
	Method int      `json:"method"`
	School int      `json:"school"`
	Data   api.Data `json:"data"`
}

// MonthEntry stores a whole calendar month as returned by the calendar
// endpoint.
type MonthEntry struct {
	Month  string     `json:"month"` // YYYY-MM
	Method int        `json:"method"`
	School int        `json:"school"`
	Days   []api.Data `json:"days"`
}

// GeoEntry stores a cached geolocation result with a timestamp.
type GeoEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

func dayStamp(date time.Time) string {
	return date.Format("2006-01-02")
}

func monthStamp(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// Key builds a deterministic hash from the period and the query parameters
// that affect prayer times, so different locations and methods never share
// an entry.
func Key(period string, q api.Query) string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%s|%s|%d|%d",
		period, q.Latitude, q.Longitude, q.City, q.Country, q.Method, q.School)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}
