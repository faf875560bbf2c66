package prayer

import (
	"time"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
)

// Name is one of the six canonical daily prayer events.
type Name string

const (
	Fajr    Name = "Fajr"
	Sunrise Name = "Sunrise"
	Dhuhr   Name = "Dhuhr"
	Asr     Name = "Asr"
	Maghrib Name = "Maghrib"
	Isha    Name = "Isha"
)

// Canonical is the fixed daily order. The selector walks it as-is and never
// sorts by time.
var Canonical = []Name{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// Timetable is one calendar day of raw time-of-day strings as the external
// source delivered them. It is never modified after construction; a new
// day's data replaces it wholesale.
type Timetable struct {
	// Date is the calendar day the times belong to (only Y/M/D and the
	// location are meaningful).
	Date  time.Time
	Hijri string
	times map[Name]string
}

// NewTimetable copies times into a new timetable for date.
func NewTimetable(date time.Time, hijri string, times map[Name]string) *Timetable {
	cp := make(map[Name]string, len(times))
	for k, v := range times {
		cp[k] = v
	}
	return &Timetable{
		Date:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()),
		Hijri: hijri,
		times: cp,
	}
}

// FromAPI builds a timetable from the API's timings for date.
func FromAPI(date time.Time, timings api.Timings, hijri api.HijriDate) *Timetable {
	times := make(map[Name]string, len(Canonical))
	for _, n := range Canonical {
		if raw, ok := timings.Get(string(n)); ok {
			times[n] = raw
		}
	}
	return NewTimetable(date, hijri.Format(), times)
}

// Raw returns the unparsed string for n.
func (t *Timetable) Raw(n Name) (string, bool) {
	raw, ok := t.times[n]
	return raw, ok
}

// Clock returns the parsed time of day for n. ok is false when the entry is
// missing or unparseable.
func (t *Timetable) Clock(n Name) (ClockTime, bool) {
	raw, ok := t.times[n]
	if !ok {
		return ClockTime{}, false
	}
	c, err := ParseClock(raw)
	if err != nil {
		return ClockTime{}, false
	}
	return c, true
}

// SameDay reports whether the timetable describes now's calendar date in the
// timetable's location.
func (t *Timetable) SameDay(now time.Time) bool {
	n := now.In(t.Date.Location())
	y, m, d := t.Date.Date()
	ny, nm, nd := n.Date()
	return y == ny && m == nm && d == nd
}
