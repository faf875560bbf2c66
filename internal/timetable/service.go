// Package timetable fetches daily and multi-day prayer timetables, serving
// them from the cache when possible and from the Al Adhan API otherwise.
package timetable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/cache"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
)

// Mode describes how the user specified their location.
type Mode int

const (
	ModeCoordinates Mode = iota
	ModeCity
)

// Location is a resolved place to fetch timetables for.
type Location struct {
	Mode      Mode
	Latitude  float64
	Longitude float64
	City      string
	Country   string
	// Timezone is an optional hint from geo-detection. The API's own
	// timezone is used when empty.
	Timezone string
}

// Coordinate returns the location's point. It is zero for ModeCity until a
// day has been fetched and Meta filled it in.
func (l Location) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Query builds the API query for this location.
func (l Location) Query(method, school int) api.Query {
	q := api.Query{Method: method, School: school}
	if l.Mode == ModeCity {
		q.City, q.Country = l.City, l.Country
		return q
	}
	q.Latitude, q.Longitude = l.Latitude, l.Longitude
	return q
}

// Fetcher is the part of api.Client the service needs.
type Fetcher interface {
	FetchDay(ctx context.Context, date time.Time, q api.Query) (*api.Response, error)
	FetchMonth(ctx context.Context, year, month int, q api.Query) (*api.CalendarResponse, error)
}

// Day is one day of data as delivered by the API.
type Day struct {
	Date time.Time
	Data api.Data
}

// Timetable converts the day into the six-prayer snapshot the countdown uses.
func (d Day) Timetable() *prayer.Timetable {
	return prayer.FromAPI(d.Date, d.Data.Timings, d.Data.Date.Hijri)
}

// TimeZone loads the location the day's times are expressed in, preferring
// hint when it is set.
func (d Day) TimeZone(hint string) (*time.Location, error) {
	tz := hint
	if tz == "" {
		tz = d.Data.Meta.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// Service combines the API client, an optional cache and a location
// provider.
type Service struct {
	fetcher Fetcher
	store   cache.Store
	locator geo.Provider
}

// New returns a Service. store and locator may be nil, disabling caching and
// auto-detection respectively.
func New(fetcher Fetcher, store cache.Store, locator geo.Provider) *Service {
	return &Service{fetcher: fetcher, store: store, locator: locator}
}

// Resolve determines the effective location.
// Priority: explicit coordinates > city/country > cached geolocation > provider.
func (s *Service) Resolve(ctx context.Context, lat, lon float64, city, country string) (Location, error) {
	switch {
	case lat != 0 || lon != 0:
		c := geo.Coordinate{Latitude: lat, Longitude: lon}
		if err := c.Validate(); err != nil {
			return Location{}, err
		}
		return Location{Mode: ModeCoordinates, Latitude: lat, Longitude: lon}, nil
	case city != "":
		if country == "" {
			return Location{}, fmt.Errorf("--country is required when using --city")
		}
		return Location{Mode: ModeCity, City: city, Country: country}, nil
	}

	if s.store != nil {
		cached, err := s.store.LoadGeo(ctx)
		if err == nil {
			return fromGeo(cached), nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Msg("geolocation cache unavailable")
		}
	}

	if s.locator == nil {
		return Location{}, fmt.Errorf("no location specified")
	}
	detected, err := s.locator.Locate(ctx)
	if err != nil {
		return Location{}, fmt.Errorf("no location specified and auto-detection failed: %w", err)
	}

	if s.store != nil {
		if err := s.store.SaveGeo(ctx, detected); err != nil {
			log.Warn().Err(err).Msg("failed to cache geolocation")
		}
	}
	return fromGeo(detected), nil
}

func fromGeo(l *geo.Location) Location {
	return Location{
		Mode:      ModeCoordinates,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		City:      l.City,
		Country:   l.Country,
		Timezone:  l.Timezone,
	}
}

// Day returns the timings for date, using the cache when available.
func (s *Service) Day(ctx context.Context, date time.Time, loc Location, method, school int) (*Day, error) {
	q := loc.Query(method, school)

	if s.store != nil {
		entry, err := s.store.LoadDay(ctx, date, q)
		switch {
		case err == nil:
			log.Debug().Str("date", date.Format("2006-01-02")).Msg("timetable cache hit")
			return &Day{Date: date, Data: entry.Data}, nil
		case !errors.Is(err, cache.ErrMiss):
			log.Warn().Err(err).Msg("timetable cache unavailable")
		}
	}

	resp, err := s.fetcher.FetchDay(ctx, date, q)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.SaveDay(ctx, date, q, resp.Data); err != nil {
			log.Warn().Err(err).Msg("failed to cache timetable")
		}
	}
	return &Day{Date: date, Data: resp.Data}, nil
}

type yearMonth struct {
	year  int
	month time.Month
}

// Days returns n consecutive days starting at start. Whole months are
// fetched through the calendar endpoint and cached.
func (s *Service) Days(ctx context.Context, start time.Time, n int, loc Location, method, school int) ([]Day, error) {
	if n < 1 {
		return nil, fmt.Errorf("invalid number of days: %d", n)
	}
	q := loc.Query(method, school)

	months := make(map[yearMonth][]api.Data)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		ym := yearMonth{d.Year(), d.Month()}
		if _, ok := months[ym]; ok {
			continue
		}
		data, err := s.month(ctx, ym, q)
		if err != nil {
			return nil, err
		}
		months[ym] = data
	}

	result := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		ym := yearMonth{d.Year(), d.Month()}
		inMonth := months[ym]

		idx := d.Day() - 1
		if idx < 0 || idx >= len(inMonth) {
			return nil, fmt.Errorf("day %d out of range for %d-%02d (got %d days)", d.Day(), ym.year, ym.month, len(inMonth))
		}
		result = append(result, Day{Date: d, Data: inMonth[idx]})
	}
	return result, nil
}

func (s *Service) month(ctx context.Context, ym yearMonth, q api.Query) ([]api.Data, error) {
	if s.store != nil {
		entry, err := s.store.LoadMonth(ctx, ym.year, ym.month, q)
		switch {
		case err == nil:
			return entry.Days, nil
		case !errors.Is(err, cache.ErrMiss):
			log.Warn().Err(err).Msg("calendar cache unavailable")
		}
	}

	resp, err := s.fetcher.FetchMonth(ctx, ym.year, int(ym.month), q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar for %d-%02d: %w", ym.year, ym.month, err)
	}

	if s.store != nil {
		if err := s.store.SaveMonth(ctx, ym.year, ym.month, q, resp.Data); err != nil {
			log.Warn().Err(err).Msg("failed to cache calendar")
		}
	}
	return resp.Data, nil
}
