package prayer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// Format constants for display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// TomorrowLabel is rendered instead of a countdown when the next prayer is
// tomorrow's first.
const TomorrowLabel = "tomorrow"

// UnknownCountdown is the placeholder shown when no next prayer is known.
const UnknownCountdown = "--:--:--"

// FormatCountdown renders seconds as HH:MM:SS. Each field is zero-padded to
// two digits; the hour field grows if it ever exceeds 99.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseCountdown is the inverse of FormatCountdown.
func ParseCountdown(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid countdown %q: want HH:MM:SS", s)
	}
	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid countdown %q: field %d is not a non-negative integer", s, i+1)
		}
		fields[i] = v
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("invalid countdown %q: minutes and seconds must be below 60", s)
	}
	return fields[0]*3600 + fields[1]*60 + fields[2], nil
}

// RemainingString renders the countdown part of a state: HH:MM:SS, or the
// tomorrow label.
func (s State) RemainingString() string {
	if s.Tomorrow {
		return TomorrowLabel
	}
	return FormatCountdown(s.Remaining)
}

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Display name, e.g. "Asr" or "İkindi"
	ShortName string // Abbreviated name, e.g. "A"
	Time      string // Formatted prayer time, e.g. "15:02" or "3:02 PM"
	Remaining string // HH:MM:SS or "tomorrow"
	Hours     int    // Whole hours remaining
	Minutes   int    // Remaining minutes after hours
	Seconds   int    // Remaining seconds after minutes
	Tomorrow  bool
}

// FormatOutput formats a next-prayer state for display according to the
// chosen format mode. timeFormat should be "15:04" for 24h or "3:04 PM" for
// 12h, lang selects the display name ("en" or "tr").
//
// If mode contains "{{", it is treated as a custom Go template string.
// Available template fields: .Name, .ShortName, .Time, .Remaining, .Hours,
// .Minutes, .Seconds, .Tomorrow
//
// Example: "{{.Name}} in {{.Remaining}}" -> "Asr in 00:30:00"
func FormatOutput(s State, mode, timeFormat, lang string) string {
	remaining := s.RemainingString()
	timeStr := s.Time.Format(timeFormat)
	name := DisplayName(s.Name, lang)
	short := ShortName(s.Name)

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Name:      name,
			ShortName: short,
			Time:      timeStr,
			Remaining: remaining,
			Hours:     s.Remaining / 3600,
			Minutes:   (s.Remaining % 3600) / 60,
			Seconds:   s.Remaining % 60,
			Tomorrow:  s.Tomorrow,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndTime:
		return fmt.Sprintf("%s %s", name, timeStr)
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", name, remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, remaining)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", name, timeStr, remaining)
	default:
		return fmt.Sprintf("%s %s", name, timeStr)
	}
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
