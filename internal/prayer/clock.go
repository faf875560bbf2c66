package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses a time string like "15:02" or "15:02 (+03)". The API
// sometimes appends a timezone label after a space; it is ignored.
func ParseClock(raw string) (ClockTime, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid time format: %q", raw)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return ClockTime{}, fmt.Errorf("time out of range: %q", raw)
	}

	return ClockTime{Hour: hour, Minute: min}, nil
}

// On returns the instant at this clock time on day's calendar date, in
// day's location, with seconds and nanoseconds zeroed.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Format renders the clock time with a Go layout such as "15:04" or "3:04 PM".
func (c ClockTime) Format(layout string) string {
	return time.Date(2000, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format(layout)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
