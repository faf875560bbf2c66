// Package prayer turns daily timetables into the "next prayer" state shown
// by the countdown, and into the per-day rows used by the list views.
package prayer

import (
	"fmt"
	"time"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
)

// Prayer represents a single prayer with its name and time.
type Prayer struct {
	Name string
	Time time.Time
}

// AllPrayerNames lists every prayer/event the API can return, in chronological order.
var AllPrayerNames = []string{
	"Fajr", "Sunrise", "Dhuhr", "Asr", "Sunset", "Maghrib", "Isha",
	"Imsak", "Midnight", "Firstthird", "Lastthird",
}

// DefaultPrayerNames are the prayers tracked by default.
var DefaultPrayerNames = []string{
	"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha",
}

// ParseTimings converts API timings into a slice of Prayer structs for the given date.
// It filters to only include the specified prayer names.
func ParseTimings(timings api.Timings, date time.Time, loc *time.Location, selected []string) ([]Prayer, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	var prayers []Prayer
	for _, name := range selected {
		raw, ok := timings.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown prayer name: %s", name)
		}

		c, err := ParseClock(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s (%q): %w", name, raw, err)
		}

		prayers = append(prayers, Prayer{Name: name, Time: c.On(day)})
	}

	return prayers, nil
}

// NextPrayer finds the next upcoming prayer from the given slice, relative to now.
// If all prayers for today have passed, it returns nil.
func NextPrayer(prayers []Prayer, now time.Time) *Prayer {
	for i := range prayers {
		if prayers[i].Time.After(now) {
			return &prayers[i]
		}
	}
	return nil
}

// CurrentPrayer returns the latest prayer whose time has already come, or
// nil before the first one of the day.
func CurrentPrayer(prayers []Prayer, now time.Time) *Prayer {
	var current *Prayer
	for i := range prayers {
		if prayers[i].Time.After(now) {
			break
		}
		current = &prayers[i]
	}
	return current
}
