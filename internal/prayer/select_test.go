package prayer

import (
	"testing"
	"time"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
)

func referenceTimetable() *Timetable {
	return NewTimetable(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), "", map[Name]string{
		Fajr:    "05:00",
		Sunrise: "06:30",
		Dhuhr:   "12:30",
		Asr:     "15:45",
		Maghrib: "18:20",
		Isha:    "19:50",
	})
}

func at(hour, min, sec int) time.Time {
	return time.Date(2026, 3, 10, hour, min, sec, 0, time.UTC)
}

func TestSelectNext_Midday(t *testing.T) {
	got, ok := SelectNext(referenceTimetable(), at(12, 0, 0))
	if !ok {
		t.Fatal("expected a state, got none")
	}
	want := State{Name: Dhuhr, Time: ClockTime{12, 30}, Remaining: 1800}
	if got != want {
		t.Errorf("SelectNext = %+v, want %+v", got, want)
	}
}

func TestSelectNext_AfterLastPrayerReportsTomorrow(t *testing.T) {
	got, ok := SelectNext(referenceTimetable(), at(23, 0, 0))
	if !ok {
		t.Fatal("expected a state, got none")
	}
	want := State{Name: Fajr, Time: ClockTime{5, 0}, Tomorrow: true}
	if got != want {
		t.Errorf("SelectNext = %+v, want %+v", got, want)
	}
	if got.RemainingString() != TomorrowLabel {
		t.Errorf("RemainingString() = %q, want %q", got.RemainingString(), TomorrowLabel)
	}
}

func TestSelectNext_Boundaries(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		want      Name
		remaining int
		tomorrow  bool
	}{
		{"just after midnight", at(0, 0, 1), Fajr, 5*3600 - 1, false},
		{"one second before Fajr", at(4, 59, 59), Fajr, 1, false},
		{"exactly at Fajr is not next", at(5, 0, 0), Sunrise, 5400, false},
		{"between Asr and Maghrib", at(16, 0, 30), Maghrib, 2*3600 + 19*60 + 30, false},
		{"one second before Isha", at(19, 49, 59), Isha, 1, false},
		{"exactly at Isha", at(19, 50, 0), Fajr, 0, true},
		{"just before midnight", at(23, 59, 59), Fajr, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectNext(referenceTimetable(), tt.now)
			if !ok {
				t.Fatal("expected a state, got none")
			}
			if got.Name != tt.want || got.Remaining != tt.remaining || got.Tomorrow != tt.tomorrow {
				t.Errorf("SelectNext(%s) = %+v, want name=%s remaining=%d tomorrow=%v",
					tt.now.Format("15:04:05"), got, tt.want, tt.remaining, tt.tomorrow)
			}
		})
	}
}

func TestSelectNext_TruncatesSubSecond(t *testing.T) {
	now := at(12, 0, 0).Add(250 * time.Millisecond)
	got, _ := SelectNext(referenceTimetable(), now)
	if got.Remaining != 1799 {
		t.Errorf("Remaining = %d, want 1799", got.Remaining)
	}
}

func TestSelectNext_UsesNowsCalendarDay(t *testing.T) {
	// The timetable's own date is irrelevant to selection; times are placed
	// on now's day.
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	got, ok := SelectNext(referenceTimetable(), now)
	if !ok || got.Name != Dhuhr || got.Remaining != 1800 {
		t.Errorf("SelectNext = %+v, %v", got, ok)
	}
}

func TestSelectNext_UsesNowsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	// 09:00 UTC is 12:00 in UTC+3.
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC).In(loc)
	got, _ := SelectNext(referenceTimetable(), now)
	if got.Name != Dhuhr || got.Remaining != 1800 {
		t.Errorf("SelectNext = %+v, want Dhuhr in 1800s", got)
	}
}

func TestSelectNext_Idempotent(t *testing.T) {
	tt := referenceTimetable()
	now := at(14, 12, 7)

	first, ok1 := SelectNext(tt, now)
	for i := 0; i < 10; i++ {
		again, ok := SelectNext(tt, now)
		if again != first || ok != ok1 {
			t.Fatalf("call %d = %+v/%v, want %+v/%v", i, again, ok, first, ok1)
		}
	}
}

func TestSelectNext_NilTimetable(t *testing.T) {
	if got, ok := SelectNext(nil, at(12, 0, 0)); ok {
		t.Errorf("expected no state for nil timetable, got %+v", got)
	}
}

func TestSelectNext_SkipsUnusableEntries(t *testing.T) {
	tt := NewTimetable(at(0, 0, 0), "", map[Name]string{
		Fajr:    "05:00",
		Sunrise: "06:30",
		Dhuhr:   "garbage",
		// Asr missing entirely.
		Maghrib: "18:20",
		Isha:    "19:50",
	})

	got, ok := SelectNext(tt, at(12, 0, 0))
	if !ok {
		t.Fatal("expected a state, got none")
	}
	if got.Name != Maghrib {
		t.Errorf("Name = %s, want %s", got.Name, Maghrib)
	}
	if got.Remaining != 6*3600+20*60 {
		t.Errorf("Remaining = %d, want %d", got.Remaining, 6*3600+20*60)
	}
}

func TestSelectNext_TomorrowSkipsUnusableFajr(t *testing.T) {
	tt := NewTimetable(at(0, 0, 0), "", map[Name]string{
		Fajr:    "",
		Sunrise: "06:30",
		Isha:    "19:50",
	})

	got, ok := SelectNext(tt, at(22, 0, 0))
	if !ok {
		t.Fatal("expected a state, got none")
	}
	if got.Name != Sunrise || !got.Tomorrow {
		t.Errorf("SelectNext = %+v, want Sunrise tomorrow", got)
	}
}

func TestSelectNext_NoUsableEntries(t *testing.T) {
	tt := NewTimetable(at(0, 0, 0), "", map[Name]string{Fajr: "x", Isha: ""})
	if got, ok := SelectNext(tt, at(12, 0, 0)); ok {
		t.Errorf("expected no state, got %+v", got)
	}
}

func TestFromAPI(t *testing.T) {
	tt := FromAPI(at(9, 0, 0), sampleTimings(), hijriSample())
	for _, n := range Canonical {
		if _, ok := tt.Clock(n); !ok {
			t.Errorf("Clock(%s) not usable", n)
		}
	}
	if raw, _ := tt.Raw(Maghrib); raw != "18:23" {
		t.Errorf("Raw(Maghrib) = %q", raw)
	}
	if tt.Hijri != "21 Ramadan 1447 AH" {
		t.Errorf("Hijri = %q", tt.Hijri)
	}
	if tt.Date.Hour() != 0 || tt.Date.Day() != 10 {
		t.Errorf("Date = %v, want midnight of the 10th", tt.Date)
	}
}

func TestNewTimetable_CopiesInput(t *testing.T) {
	times := map[Name]string{Fajr: "05:00"}
	tt := NewTimetable(at(0, 0, 0), "", times)
	times[Fajr] = "09:00"

	if raw, _ := tt.Raw(Fajr); raw != "05:00" {
		t.Errorf("timetable changed through caller's map: %q", raw)
	}
}

func hijriSample() api.HijriDate {
	return api.HijriDate{
		Day:         "21",
		Month:       api.HijriMonth{Number: 9, En: "Ramadan"},
		Year:        "1447",
		Designation: api.HijriDesignation{Abbreviated: "AH"},
	}
}
