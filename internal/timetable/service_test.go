package timetable

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/cache"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
)

type fakeFetcher struct {
	dayCalls   int
	monthCalls int
	err        error
}

func dataFor(day int) api.Data {
	return api.Data{
		Timings: api.Timings{
			Fajr:    fmt.Sprintf("05:%02d", day),
			Sunrise: "06:30",
			Dhuhr:   "12:30",
			Asr:     "15:45",
			Maghrib: "18:20",
			Isha:    "19:50",
		},
		Date: api.DateInfo{Hijri: api.HijriDate{Day: "1", Month: api.HijriMonth{En: "Shawwal"}, Year: "1447"}},
		Meta: api.Meta{Latitude: 41.0082, Longitude: 28.9784, Timezone: "Europe/Istanbul"},
	}
}

func (f *fakeFetcher) FetchDay(_ context.Context, date time.Time, _ api.Query) (*api.Response, error) {
	f.dayCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &api.Response{Code: 200, Data: dataFor(date.Day())}, nil
}

func (f *fakeFetcher) FetchMonth(_ context.Context, year, month int, _ api.Query) (*api.CalendarResponse, error) {
	f.monthCalls++
	if f.err != nil {
		return nil, f.err
	}
	n := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	days := make([]api.Data, n)
	for i := range days {
		days[i] = dataFor(i + 1)
	}
	return &api.CalendarResponse{Code: 200, Data: days}, nil
}

type fakeLocator struct {
	calls int
	loc   *geo.Location
	err   error
}

func (f *fakeLocator) Locate(context.Context) (*geo.Location, error) {
	f.calls++
	return f.loc, f.err
}

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	return c
}

var istanbul = Location{Mode: ModeCoordinates, Latitude: 41.0082, Longitude: 28.9784}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

func TestResolve_Coordinates(t *testing.T) {
	s := New(&fakeFetcher{}, nil, nil)
	loc, err := s.Resolve(context.Background(), 41.0082, 28.9784, "", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Mode != ModeCoordinates || loc.Latitude != 41.0082 {
		t.Errorf("unexpected location %+v", loc)
	}
}

func TestResolve_InvalidCoordinates(t *testing.T) {
	s := New(&fakeFetcher{}, nil, nil)
	_, err := s.Resolve(context.Background(), 95, 10, "", "")
	if !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Errorf("err = %v, want ErrInvalidCoordinate", err)
	}
}

func TestResolve_CityNeedsCountry(t *testing.T) {
	s := New(&fakeFetcher{}, nil, nil)
	if _, err := s.Resolve(context.Background(), 0, 0, "Istanbul", ""); err == nil {
		t.Fatal("expected error without country")
	}
	loc, err := s.Resolve(context.Background(), 0, 0, "Istanbul", "Turkey")
	if err != nil || loc.Mode != ModeCity {
		t.Errorf("Resolve = %+v, %v", loc, err)
	}
}

func TestResolve_AutoDetectCachesResult(t *testing.T) {
	ctx := context.Background()
	store := newCache(t)
	locator := &fakeLocator{loc: &geo.Location{Latitude: 39.93, Longitude: 32.86, City: "Ankara", Timezone: "Europe/Istanbul"}}
	s := New(&fakeFetcher{}, store, locator)

	for i := 0; i < 2; i++ {
		loc, err := s.Resolve(ctx, 0, 0, "", "")
		if err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
		if loc.City != "Ankara" || loc.Timezone != "Europe/Istanbul" {
			t.Errorf("Resolve #%d = %+v", i, loc)
		}
	}
	if locator.calls != 1 {
		t.Errorf("locator called %d times, want 1 (second from cache)", locator.calls)
	}
}

func TestResolve_DetectionFails(t *testing.T) {
	s := New(&fakeFetcher{}, nil, &fakeLocator{err: errors.New("offline")})
	if _, err := s.Resolve(context.Background(), 0, 0, "", ""); err == nil {
		t.Fatal("expected error")
	}

	s = New(&fakeFetcher{}, nil, nil)
	if _, err := s.Resolve(context.Background(), 0, 0, "", ""); err == nil {
		t.Fatal("expected error without a locator")
	}
}

// ---------------------------------------------------------------------------
// Day
// ---------------------------------------------------------------------------

func TestDay_CacheThenAPI(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{}
	s := New(f, newCache(t), nil)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	d1, err := s.Day(ctx, date, istanbul, 13, -1)
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	d2, err := s.Day(ctx, date, istanbul, 13, -1)
	if err != nil {
		t.Fatalf("Day (cached): %v", err)
	}
	if f.dayCalls != 1 {
		t.Errorf("API called %d times, want 1", f.dayCalls)
	}
	if d1.Data.Timings.Fajr != "05:10" || d2.Data.Timings.Fajr != "05:10" {
		t.Errorf("unexpected Fajr %q / %q", d1.Data.Timings.Fajr, d2.Data.Timings.Fajr)
	}

	// Another method is a separate cache entry.
	if _, err := s.Day(ctx, date, istanbul, 3, -1); err != nil {
		t.Fatalf("Day: %v", err)
	}
	if f.dayCalls != 2 {
		t.Errorf("API called %d times, want 2", f.dayCalls)
	}
}

func TestDay_UpstreamFailure(t *testing.T) {
	s := New(&fakeFetcher{err: errors.New("boom")}, nil, nil)
	if _, err := s.Day(context.Background(), time.Now(), istanbul, 13, -1); err == nil {
		t.Fatal("expected error")
	}
}

func TestDay_Timetable(t *testing.T) {
	s := New(&fakeFetcher{}, nil, nil)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	d, err := s.Day(context.Background(), date, istanbul, 13, -1)
	if err != nil {
		t.Fatalf("Day: %v", err)
	}

	tt := d.Timetable()
	state, ok := prayer.SelectNext(tt, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if !ok || state.Name != prayer.Dhuhr || state.Remaining != 1800 {
		t.Errorf("SelectNext = %+v, %v", state, ok)
	}
	if tt.Hijri != "1 Shawwal 1447 AH" {
		t.Errorf("Hijri = %q", tt.Hijri)
	}
}

func TestDay_TimeZone(t *testing.T) {
	d := Day{Data: dataFor(1)}
	if _, err := d.TimeZone(""); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	loc, err := d.TimeZone("UTC")
	if err != nil || loc.String() != "UTC" {
		t.Errorf("TimeZone(UTC) = %v, %v", loc, err)
	}
	if _, err := d.TimeZone("Not/AZone"); err == nil {
		t.Error("expected error for bad timezone")
	}
}

// ---------------------------------------------------------------------------
// Days
// ---------------------------------------------------------------------------

func TestDays_SpansMonths(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{}
	s := New(f, newCache(t), nil)
	start := time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC)

	days, err := s.Days(ctx, start, 7, istanbul, 13, -1)
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("got %d days, want 7", len(days))
	}
	if f.monthCalls != 2 {
		t.Errorf("FetchMonth called %d times, want 2", f.monthCalls)
	}
	if days[0].Data.Timings.Fajr != "05:29" || days[3].Data.Timings.Fajr != "05:01" {
		t.Errorf("unexpected days: %s, %s", days[0].Data.Timings.Fajr, days[3].Data.Timings.Fajr)
	}
	if !days[3].Date.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("days[3].Date = %v", days[3].Date)
	}

	// Second call is fully cached.
	if _, err := s.Days(ctx, start, 7, istanbul, 13, -1); err != nil {
		t.Fatalf("Days (cached): %v", err)
	}
	if f.monthCalls != 2 {
		t.Errorf("FetchMonth called %d times after cached call, want 2", f.monthCalls)
	}
}

func TestDays_Invalid(t *testing.T) {
	s := New(&fakeFetcher{}, nil, nil)
	if _, err := s.Days(context.Background(), time.Now(), 0, istanbul, 13, -1); err == nil {
		t.Error("expected error for zero days")
	}

	s = New(&fakeFetcher{err: errors.New("down")}, nil, nil)
	if _, err := s.Days(context.Background(), time.Now(), 3, istanbul, 13, -1); err == nil {
		t.Error("expected error when the API is down")
	}
}

func TestLocation_Query(t *testing.T) {
	q := istanbul.Query(13, 1)
	if q.ByCity() || q.Latitude != 41.0082 || q.Method != 13 || q.School != 1 {
		t.Errorf("coordinate query = %+v", q)
	}

	city := Location{Mode: ModeCity, City: "Konya", Country: "Turkey", Latitude: 1}
	q = city.Query(-1, -1)
	if !q.ByCity() || q.Latitude != 0 || q.City != "Konya" {
		t.Errorf("city query = %+v", q)
	}
}
