package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/display"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/notify"
	"github.com/mustafadnc15/ezan-saati-pro/internal/timetable"
)

// fakeAPI serves the same timings for every day.
type fakeAPI struct {
	err         error
	dayCalls    int
	monthCalls  int
	lastQuery   api.Query
	lastDayDate time.Time
}

func sampleDay(date time.Time) api.Data {
	return api.Data{
		Timings: api.Timings{
			Fajr:       "05:00",
			Sunrise:    "06:30",
			Dhuhr:      "12:30",
			Asr:        "15:45",
			Sunset:     "18:20",
			Maghrib:    "18:20",
			Isha:       "19:50 (+03)",
			Imsak:      "04:50",
			Midnight:   "00:10",
			Firstthird: "22:00",
			Lastthird:  "02:20",
		},
		Date: api.DateInfo{
			Gregorian: api.GregorianDate{
				Day:   date.Format("02"),
				Month: api.GregorianMonth{Number: int(date.Month()), En: date.Month().String()},
				Year:  date.Format("2006"),
			},
			Hijri: api.HijriDate{
				Day:   "21",
				Month: api.HijriMonth{Number: 9, En: "Ramadan"},
				Year:  "1447",
			},
		},
		Meta: api.Meta{Latitude: 41.0082, Longitude: 28.9784, Timezone: "UTC"},
	}
}

func (f *fakeAPI) FetchDay(_ context.Context, date time.Time, q api.Query) (*api.Response, error) {
	f.dayCalls++
	f.lastQuery = q
	f.lastDayDate = date
	if f.err != nil {
		return nil, f.err
	}
	return &api.Response{Code: 200, Status: "OK", Data: sampleDay(date)}, nil
}

func (f *fakeAPI) FetchMonth(_ context.Context, year, month int, q api.Query) (*api.CalendarResponse, error) {
	f.monthCalls++
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	n := first.AddDate(0, 1, -1).Day()
	resp := &api.CalendarResponse{Code: 200, Status: "OK"}
	for i := 0; i < n; i++ {
		resp.Data = append(resp.Data, sampleDay(first.AddDate(0, 0, i)))
	}
	return resp, nil
}

// fixedAt is Tuesday 10 March 2026, 12:00 UTC: after Sunrise, 30 minutes
// before Dhuhr.
var fixedAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// harness wires the package's collaborators to fakes for one test.
func harness(t *testing.T, at time.Time) *fakeAPI {
	t.Helper()
	fake := &fakeAPI{}

	oldFetcher, oldLocator, oldClock := newFetcher, newLocator, clock
	newFetcher = func() timetable.Fetcher { return fake }
	newLocator = func() geo.Provider {
		return geo.Static{Latitude: 21.4225, Longitude: 39.8262, City: "Mecca", Country: "Saudi Arabia", Timezone: "UTC"}
	}
	clock = func() time.Time { return at }
	t.Cleanup(func() {
		newFetcher, newLocator, clock = oldFetcher, oldLocator, oldClock
		loadedConfig = nil
	})

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	display.SetEnabled(false)
	return fake
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("v1.2.3-test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--cache-dir", t.TempDir()))
	err := cmd.Execute()
	return out.String(), err
}

var istanbul = []string{"--latitude", "41.0082", "--longitude", "28.9784"}

func withIstanbul(args ...string) []string {
	return append(args, istanbul...)
}

func TestVersionFlag(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if got, want := strings.TrimSpace(out), "ezan-saati version v1.2.3-test"; got != want {
		t.Errorf("--version = %q, want %q", got, want)
	}
}

func TestHelpFlag(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	for _, sub := range []string{"next", "list", "week", "month", "query", "qibla", "notify", "serve", "config", "methods"} {
		if !strings.Contains(out, sub) {
			t.Errorf("--help output missing subcommand %q", sub)
		}
	}
}

func TestMethodsSubcommand(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, "methods")
	if err != nil {
		t.Fatalf("methods failed: %v", err)
	}
	for _, m := range []string{"ISNA", "Muslim World League", "Umm Al-Qura", "Diyanet", "Ministry of Awqaf, Jordan", "method 13"} {
		if !strings.Contains(out, m) {
			t.Errorf("methods output missing %q", m)
		}
	}
}

func TestCalculationMethods(t *testing.T) {
	seen := make(map[int]bool)
	for _, m := range CalculationMethods {
		if seen[m.ID] {
			t.Errorf("duplicate calculation method ID: %d", m.ID)
		}
		seen[m.ID] = true
		if m.ID < 0 || m.ID > 23 {
			t.Errorf("method ID %d out of range 0-23", m.ID)
		}
		if m.Name == "" {
			t.Errorf("method ID %d has empty name", m.ID)
		}
	}
	if !seen[13] {
		t.Error("Diyanet (13) missing from method table")
	}
}

func TestToday(t *testing.T) {
	fake := harness(t, fixedAt)

	out, err := execute(t, istanbul...)
	if err != nil {
		t.Fatalf("today failed: %v", err)
	}

	for _, want := range []string{
		"41.0082, 28.9784",
		"10 March 2026",
		"21 Ramadan 1447 AH",
		"Qibla ↘ 152° SE",
		"  Dhuhr    12:30  <- next in 00:30:00",
		"  Isha     19:50",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if fake.lastQuery.Method != 13 {
		t.Errorf("method = %d, want the Diyanet default 13", fake.lastQuery.Method)
	}
}

func TestToday_JSON(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, withIstanbul("--json", "--language", "tr")...)
	if err != nil {
		t.Fatalf("today --json failed: %v", err)
	}

	var got todayJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Current != "sunrise" {
		t.Errorf("current = %q, want sunrise", got.Current)
	}
	if got.Next == nil || got.Next.Prayer != "dhuhr" || got.Next.Name != "Öğle" || got.Next.Remaining != "00:30:00" {
		t.Errorf("next = %+v, want dhuhr/Öğle in 00:30:00", got.Next)
	}
	if got.Qibla == nil || *got.Qibla != 152 {
		t.Errorf("qibla = %v, want 152", got.Qibla)
	}
	if got.Timings["isha"] != "19:50" {
		t.Errorf("isha = %q, want 19:50", got.Timings["isha"])
	}
	if got.Location.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", got.Location.Timezone)
	}
}

func TestToday_AutoDetect(t *testing.T) {
	fake := harness(t, fixedAt)

	out, err := execute(t)
	if err != nil {
		t.Fatalf("today failed: %v", err)
	}
	if !strings.Contains(out, "Mecca, Saudi Arabia") {
		t.Errorf("output missing detected location:\n%s", out)
	}
	if fake.lastQuery.Latitude != 21.4225 {
		t.Errorf("query latitude = %v, want the detected 21.4225", fake.lastQuery.Latitude)
	}
}

func TestToday_UpstreamError(t *testing.T) {
	fake := harness(t, fixedAt)
	fake.err = errors.New("API returned status 500")

	if _, err := execute(t, istanbul...); err == nil {
		t.Fatal("expected error when the API fails")
	}
}

func TestToday_CityRequiresCountry(t *testing.T) {
	harness(t, fixedAt)

	_, err := execute(t, "--city", "Istanbul")
	if err == nil || !strings.Contains(err.Error(), "--country") {
		t.Fatalf("err = %v, want --country requirement", err)
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		args []string
		want string
	}{
		{"full", fixedAt, nil, "Dhuhr 12:30 (00:30:00)"},
		{"time remaining", fixedAt, []string{"--format", "time-remaining"}, "00:30:00"},
		{"turkish", fixedAt, []string{"--format", "name-and-time", "--language", "tr"}, "Öğle 12:30"},
		{"12h", fixedAt, []string{"--format", "next-prayer-time", "--time-format", "12h"}, "12:30 PM"},
		{"tracked subset", fixedAt, []string{"--format", "name-and-remaining", "--prayers", "Fajr,Asr"}, "Asr 03:45:00"},
		{"after isha", time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), nil, "Fajr 05:00 (tomorrow)"},
		{"template", fixedAt, []string{"--format", "{{.ShortName}} {{.Hours}}h{{.Minutes}}m"}, "D 0h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			harness(t, tt.at)

			args := withIstanbul(append([]string{"next"}, tt.args...)...)
			got, err := execute(t, args...)
			if err != nil {
				t.Fatalf("next failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("next = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNext_NoTrackablePrayers(t *testing.T) {
	harness(t, fixedAt)

	if _, err := execute(t, withIstanbul("next", "--prayers", "Midnight")...); err == nil {
		t.Fatal("expected error for a selection without daily prayers")
	}
}

func TestList(t *testing.T) {
	fake := harness(t, fixedAt)

	out, err := execute(t, withIstanbul("list", "3")...)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"Prayer Times - 3 Days", "Tue 10 Mar", "Wed 11 Mar", "Thu 12 Mar", "Dhuhr"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Fri 13 Mar") {
		t.Errorf("output has a fourth day:\n%s", out)
	}
	if fake.monthCalls != 1 {
		t.Errorf("month calls = %d, want 1", fake.monthCalls)
	}
}

func TestList_SpansMonths(t *testing.T) {
	fake := harness(t, time.Date(2026, 3, 30, 9, 0, 0, 0, time.UTC))

	out, err := execute(t, withIstanbul("list", "4", "--json")...)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var got listJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	var dates []string
	for _, d := range got.Days {
		dates = append(dates, d.Date)
	}
	want := "30 Mar 2026,31 Mar 2026,01 Apr 2026,02 Apr 2026"
	if strings.Join(dates, ",") != want {
		t.Errorf("dates = %v, want %s", dates, want)
	}
	if got.Days[0].Timings["maghrib"] != "18:20" {
		t.Errorf("maghrib = %q, want 18:20", got.Days[0].Timings["maghrib"])
	}
	if fake.monthCalls != 2 {
		t.Errorf("month calls = %d, want 2", fake.monthCalls)
	}
}

func TestWeekAndMonth(t *testing.T) {
	harness(t, fixedAt)

	week, err := execute(t, withIstanbul("week")...)
	if err != nil {
		t.Fatalf("week failed: %v", err)
	}
	if !strings.Contains(week, "7 Days") || !strings.Contains(week, "Mon 16 Mar") {
		t.Errorf("week output unexpected:\n%s", week)
	}

	month, err := execute(t, withIstanbul("month")...)
	if err != nil {
		t.Fatalf("month failed: %v", err)
	}
	if !strings.Contains(month, "30 Days") || !strings.Contains(month, "Wed 08 Apr") {
		t.Errorf("month output unexpected:\n%s", month)
	}
}

func TestList_InvalidDays(t *testing.T) {
	harness(t, fixedAt)

	for _, arg := range []string{"0", "-2", "abc"} {
		if _, err := execute(t, withIstanbul("list", arg)...); err == nil {
			t.Errorf("list %s: expected error", arg)
		}
	}
}

func TestQuery(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, withIstanbul("query", "asr")...)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if out != "Asr 15:45\n" {
		t.Errorf("query asr = %q, want %q", out, "Asr 15:45\n")
	}

	out, err = execute(t, withIstanbul("query", "MIDNIGHT", "--language", "tr")...)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if out != "Midnight 00:10\n" {
		t.Errorf("query midnight = %q", out)
	}
}

func TestQuery_Days(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, withIstanbul("query", "isha", "--days", "3", "--json")...)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	var got queryJSONMulti
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Prayer != "isha" || len(got.Days) != 3 {
		t.Fatalf("got %+v, want 3 isha days", got)
	}
	for _, d := range got.Days {
		if d.Time != "19:50" {
			t.Errorf("%s: time = %q, want 19:50", d.Date, d.Time)
		}
	}
}

func TestQuery_Invalid(t *testing.T) {
	harness(t, fixedAt)

	if _, err := execute(t, withIstanbul("query", "brunch")...); err == nil {
		t.Error("expected error for unknown prayer")
	}
	if _, err := execute(t, withIstanbul("query", "fajr", "--days", "zero")...); err == nil {
		t.Error("expected error for invalid --days")
	}
}

func TestQibla(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, withIstanbul("qibla", "--json", "--heading", "100")...)
	if err != nil {
		t.Fatalf("qibla failed: %v", err)
	}
	var got qiblaView
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Bearing != 152 || got.Compass != "SE" {
		t.Errorf("bearing = %d %s, want 152 SE", got.Bearing, got.Compass)
	}
	if got.Needle == nil || *got.Needle != 52 {
		t.Errorf("needle = %v, want 52", got.Needle)
	}

	out, err = execute(t, withIstanbul("qibla")...)
	if err != nil {
		t.Fatalf("qibla failed: %v", err)
	}
	if !strings.Contains(out, "↘  152° SE") {
		t.Errorf("qibla output unexpected:\n%s", out)
	}
}

func TestQibla_City(t *testing.T) {
	fake := harness(t, fixedAt)

	out, err := execute(t, "qibla", "--json", "--city", "Istanbul", "--country", "Turkey")
	if err != nil {
		t.Fatalf("qibla failed: %v", err)
	}
	var got qiblaView
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Bearing != 152 || got.Location != "Istanbul, Turkey" {
		t.Errorf("got %+v, want Istanbul at 152", got)
	}
	if fake.dayCalls != 1 || fake.lastQuery.City != "Istanbul" {
		t.Errorf("expected one city lookup, got %d calls for %+v", fake.dayCalls, fake.lastQuery)
	}
}

func TestQibla_Magnetometer(t *testing.T) {
	harness(t, fixedAt)

	// Field along +y: heading 0, so the needle equals the bearing.
	out, err := execute(t, withIstanbul("qibla", "--json", "--mag-x", "0", "--mag-y", "30")...)
	if err != nil {
		t.Fatalf("qibla failed: %v", err)
	}
	var got qiblaView
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Heading == nil || *got.Heading != 0 || *got.Needle != 152 {
		t.Errorf("heading/needle = %v/%v, want 0/152", got.Heading, got.Needle)
	}
}

func TestMosques(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name: "coordinates",
			args: withIstanbul("mosques"),
			contains: []string{
				"Mosques Nearby",
				"41.0082, 28.9784",
				"https://www.google.com/maps/search/mosques/@41.008200,28.978400,15z",
				"geo:41.008200,28.978400?q=mosques",
			},
		},
		{
			name: "turkish search term",
			args: withIstanbul("mosques", "--language", "tr"),
			contains: []string{
				"https://www.google.com/maps/search/camiler/@41.008200,28.978400,15z",
				"geo:41.008200,28.978400?q=camiler",
			},
		},
		{
			name: "detected location",
			args: []string{"mosques"},
			contains: []string{
				"Mecca, Saudi Arabia",
				"https://www.google.com/maps/search/mosques/@21.422500,39.826200,15z",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			harness(t, fixedAt)

			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("mosques failed: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestMosques_JSON(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, withIstanbul("mosques", "--json", "--language", "tr")...)
	if err != nil {
		t.Fatalf("mosques failed: %v", err)
	}
	var got mosquesView
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Query != "camiler" || got.Latitude != 41.0082 || got.GeoURI != "geo:41.008200,28.978400?q=camiler" {
		t.Errorf("got %+v", got)
	}
}

func TestNotify_Preview(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, withIstanbul("notify", "--json", "--language", "tr")...)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	var got []notify.Reminder
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(got) != 6 {
		t.Fatalf("got %d reminders, want 6", len(got))
	}
	if got[0].Prayer != "Fajr" || got[0].Hour != 5 || got[0].Title != "İmsak Vakti" {
		t.Errorf("first reminder = %+v", got[0])
	}
	if got[5].Hour != 19 || got[5].Minute != 50 {
		t.Errorf("isha reminder at %02d:%02d, want 19:50", got[5].Hour, got[5].Minute)
	}
}

func TestNotify_RequiresBroker(t *testing.T) {
	harness(t, fixedAt)

	for _, sub := range []string{"test", "cancel", "schedule"} {
		_, err := execute(t, withIstanbul("notify", sub)...)
		if err == nil || !strings.Contains(err.Error(), "no MQTT broker") {
			t.Errorf("notify %s: err = %v, want missing broker", sub, err)
		}
	}
}

func TestConfigSetAndShow(t *testing.T) {
	harness(t, fixedAt)

	if _, err := execute(t, "config", "set", "language", "tr"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if _, err := execute(t, "config", "set", "language", "de"); err == nil {
		t.Error("expected error for unsupported language")
	}

	out, err := execute(t, "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out, "language") || !strings.Contains(out, "tr") {
		t.Errorf("config output missing language:\n%s", out)
	}

	got, err := execute(t, withIstanbul("next", "--format", "name-and-time")...)
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if got != "Öğle 12:30" {
		t.Errorf("next = %q, want the configured Turkish name", got)
	}
}

func TestConfigEnvOverride(t *testing.T) {
	harness(t, fixedAt)
	t.Setenv("EZAN_TIME_FORMAT", "12h")

	got, err := execute(t, withIstanbul("next", "--format", "next-prayer-time")...)
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if got != "12:30 PM" {
		t.Errorf("next = %q, want 12h from the environment", got)
	}

	got, err = execute(t, withIstanbul("next", "--format", "next-prayer-time", "--time-format", "24h")...)
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if got != "12:30" {
		t.Errorf("next = %q, want the flag to beat the environment", got)
	}
}

func TestConfigPath(t *testing.T) {
	harness(t, fixedAt)

	out, err := execute(t, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "ezan-saati/config.json") {
		t.Errorf("config path = %q", out)
	}
}
