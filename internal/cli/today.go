package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/display"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
	"github.com/mustafadnc15/ezan-saati-pro/internal/qibla"
	"github.com/mustafadnc15/ezan-saati-pro/internal/timetable"
)

func runToday(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	day, tz, now, err := s.day(cmd.Context())
	if err != nil {
		return err
	}

	prayers, err := prayer.ParseTimings(day.Data.Timings, now, tz, s.cfg.PrayerList(prayer.DefaultPrayerNames))
	if err != nil {
		return err
	}

	v := todayView{
		Prayers:  prayers,
		Current:  prayer.CurrentPrayer(prayers, now),
		Next:     prayer.NextPrayer(prayers, now),
		Now:      now,
		Data:     day.Data,
		Place:    s.loc,
		Location: buildLocationStr(s.loc, day.Data.Meta),
		TZ:       tz.String(),
		Layout:   s.cfg.GoTimeLayout(),
		Lang:     s.cfg.Language,
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return printTodayJSON(out, v)
	}
	printTodayRich(out, v)
	return nil
}

// todayView is everything the today renderers need.
type todayView struct {
	Prayers  []prayer.Prayer
	Current  *prayer.Prayer
	Next     *prayer.Prayer
	Now      time.Time
	Data     api.Data
	Place    timetable.Location
	Location string
	TZ       string
	Layout   string
	Lang     string
}

// bearing returns the Qibla bearing for the coordinates the API reported.
func (v todayView) bearing() (int, bool) {
	c := geo.Coordinate{Latitude: v.Data.Meta.Latitude, Longitude: v.Data.Meta.Longitude}
	if c.IsZero() || c.Validate() != nil {
		return 0, false
	}
	return qibla.Bearing(c), true
}

// buildLocationStr builds a "City, Country" string from available data.
func buildLocationStr(loc timetable.Location, meta api.Meta) string {
	if loc.City != "" && loc.Country != "" {
		return loc.City + ", " + loc.Country
	}
	// Fall back to coordinates.
	return fmt.Sprintf("%.4f, %.4f", meta.Latitude, meta.Longitude)
}

// secondsUntil counts whole seconds from now to t.
func secondsUntil(t, now time.Time) int {
	return int(t.Sub(now) / time.Second)
}

// printTodayRich renders the colored terminal output for today's prayer schedule.
func printTodayRich(w io.Writer, v todayView) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Times"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", v.Location)
	fmt.Fprintf(w, "  %s\n", v.TZ)
	fmt.Fprintf(w, "  %s\n", formatGregorianDate(v.Now, v.Data.Date))
	if hijri := v.Data.Date.Hijri.Format(); hijri != "" {
		fmt.Fprintf(w, "  %s\n", hijri)
	}
	if b, ok := v.bearing(); ok {
		fmt.Fprintf(w, "  Qibla %s %s %s\n", display.Arrow(b), display.Degrees(b), qibla.CompassPoint(b))
	}
	fmt.Fprintln(w)

	names := make([]string, len(v.Prayers))
	maxNameLen := 0
	for i, p := range v.Prayers {
		names[i] = prayer.DisplayName(prayer.Name(p.Name), v.Lang)
		if n := utf8.RuneCountInString(names[i]); n > maxNameLen {
			maxNameLen = n
		}
	}

	for i, p := range v.Prayers {
		line := fmt.Sprintf("  %s  %s", padRight(names[i], maxNameLen), p.Time.Format(v.Layout))

		switch {
		case v.Current != nil && p.Name == v.Current.Name:
			fmt.Fprintln(w, display.Dim(line))
		case v.Next != nil && p.Name == v.Next.Name:
			suffix := fmt.Sprintf("  <- next in %s", prayer.FormatCountdown(secondsUntil(p.Time, v.Now)))
			fmt.Fprintln(w, display.Accent(line)+display.Accent(suffix))
		default:
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintln(w)
}

// formatGregorianDate returns a formatted Gregorian date string.
// Prefers API data; falls back to formatting `now`.
func formatGregorianDate(now time.Time, info api.DateInfo) string {
	g := info.Gregorian
	if g.Day != "" && g.Month.En != "" && g.Year != "" {
		return g.Day + " " + g.Month.En + " " + g.Year
	}
	return now.Format("02 Jan 2006")
}

// padRight pads a string to the given width in runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location todayJSONLocation `json:"location"`
	Date     todayJSONDate     `json:"date"`
	Qibla    *int              `json:"qibla,omitempty"`
	Timings  map[string]string `json:"timings"`
	Current  string            `json:"current"`
	Next     *todayJSONNext    `json:"next"`
}

type todayJSONLocation struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Name      string `json:"name"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
}

func jsonLocation(loc timetable.Location, tz string, meta api.Meta) todayJSONLocation {
	return todayJSONLocation{
		City:      loc.City,
		Country:   loc.Country,
		Timezone:  tz,
		Latitude:  meta.Latitude,
		Longitude: meta.Longitude,
	}
}

// printTodayJSON renders structured JSON output.
func printTodayJSON(w io.Writer, v todayView) error {
	timings := make(map[string]string, len(v.Prayers))
	for _, p := range v.Prayers {
		timings[strings.ToLower(p.Name)] = p.Time.Format(v.Layout)
	}

	out := todayJSON{
		Location: jsonLocation(v.Place, v.TZ, v.Data.Meta),
		Date: todayJSONDate{
			Gregorian: formatGregorianDate(v.Now, v.Data.Date),
			Hijri:     v.Data.Date.Hijri.Format(),
		},
		Timings: timings,
	}
	if b, ok := v.bearing(); ok {
		out.Qibla = &b
	}
	if v.Current != nil {
		out.Current = strings.ToLower(v.Current.Name)
	}
	if v.Next != nil {
		out.Next = &todayJSONNext{
			Prayer:    strings.ToLower(v.Next.Name),
			Name:      prayer.DisplayName(prayer.Name(v.Next.Name), v.Lang),
			Time:      v.Next.Time.Format(v.Layout),
			Remaining: prayer.FormatCountdown(secondsUntil(v.Next.Time, v.Now)),
		}
	}

	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
