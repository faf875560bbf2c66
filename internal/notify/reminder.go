// Package notify turns a day's timetable into prayer reminders and hands
// them to a delivery backend.
package notify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
)

// ErrNoReminders is returned when a timetable has no usable entry to remind
// about.
var ErrNoReminders = errors.New("notify: no usable prayer times")

// Notification sounds selectable in the settings.
const (
	SoundDefault   = "default"
	SoundAdhan     = "adhan"
	SoundBismillah = "bismillah"
)

// Sounds lists the accepted sound names.
var Sounds = []string{SoundDefault, SoundAdhan, SoundBismillah}

// ValidSound reports whether s is one of Sounds.
func ValidSound(s string) bool {
	for _, v := range Sounds {
		if v == s {
			return true
		}
	}
	return false
}

// Reminder is one notification, repeating daily at Hour:Minute unless it is
// a one-off (Daily false, delivered immediately).
type Reminder struct {
	ID     string      `json:"id"`
	Prayer prayer.Name `json:"prayer,omitempty"`
	Title  string      `json:"title"`
	Body   string      `json:"body"`
	Hour   int         `json:"hour"`
	Minute int         `json:"minute"`
	Sound  string      `json:"sound"`
	Daily  bool        `json:"daily"`
}

var titles = map[string]map[prayer.Name]string{
	prayer.LangEnglish: {
		prayer.Fajr:    "Fajr time",
		prayer.Sunrise: "Sunrise",
		prayer.Dhuhr:   "Dhuhr adhan",
		prayer.Asr:     "Asr adhan",
		prayer.Maghrib: "Maghrib adhan",
		prayer.Isha:    "Isha adhan",
	},
	prayer.LangTurkish: {
		prayer.Fajr:    "İmsak Vakti",
		prayer.Sunrise: "Güneş Doğdu",
		prayer.Dhuhr:   "Öğle Ezanı",
		prayer.Asr:     "İkindi Ezanı",
		prayer.Maghrib: "Akşam Ezanı",
		prayer.Isha:    "Yatsı Ezanı",
	},
}

func title(n prayer.Name, lang string) string {
	if t, ok := titles[lang][n]; ok {
		return t
	}
	return titles[prayer.LangEnglish][n]
}

func body(n prayer.Name, c prayer.ClockTime, lang string) string {
	if lang == prayer.LangTurkish {
		return fmt.Sprintf("Ezan vakti geldi: %s 🕌", c)
	}
	return fmt.Sprintf("%s time: %s 🕌", prayer.DisplayName(n, lang), c)
}

// BuildReminders creates one daily reminder per usable canonical prayer in
// tt. Unparseable entries are skipped.
func BuildReminders(tt *prayer.Timetable, lang, sound string) ([]Reminder, error) {
	if tt == nil {
		return nil, ErrNoReminders
	}
	if sound == "" {
		sound = SoundDefault
	}
	if !ValidSound(sound) {
		return nil, fmt.Errorf("invalid sound %q: must be one of %s", sound, strings.Join(Sounds, ", "))
	}

	var out []Reminder
	for _, n := range prayer.Canonical {
		c, ok := tt.Clock(n)
		if !ok {
			continue
		}
		out = append(out, Reminder{
			ID:     uuid.NewString(),
			Prayer: n,
			Title:  title(n, lang),
			Body:   body(n, c, lang),
			Hour:   c.Hour,
			Minute: c.Minute,
			Sound:  sound,
			Daily:  true,
		})
	}
	if len(out) == 0 {
		return nil, ErrNoReminders
	}
	return out, nil
}

// TestReminder returns a one-off notification used to check delivery.
func TestReminder(lang, sound string) Reminder {
	if sound == "" {
		sound = SoundDefault
	}
	r := Reminder{
		ID:    uuid.NewString(),
		Title: "Prayer Times Test 📢",
		Body:  "This is a test notification.",
		Sound: sound,
	}
	if lang == prayer.LangTurkish {
		r.Title = "Ezan Vakti Test 📢"
		r.Body = "Bu bir test bildirimidir. Ezan okunuyor..."
	}
	return r
}
