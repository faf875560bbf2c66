package prayer

import "time"

// State is the derived "next prayer" value recomputed on every tick.
type State struct {
	Name Name
	Time ClockTime
	// Remaining is the number of whole seconds until Time. It is zero when
	// Tomorrow is set.
	Remaining int
	// Tomorrow marks that every entry of today has passed and Name is the
	// first prayer of the next day. No countdown is computed in that case.
	Tomorrow bool
}

// SelectNext returns the first canonical prayer whose time today is strictly
// after now. Entries with a missing or unparseable time are skipped. When
// none is left today the first usable prayer is reported with Tomorrow set.
// ok is false when tt is nil or holds no usable entry at all.
func SelectNext(tt *Timetable, now time.Time) (s State, ok bool) {
	if tt == nil {
		return State{}, false
	}

	var first *State
	for _, n := range Canonical {
		c, usable := tt.Clock(n)
		if !usable {
			continue
		}
		if first == nil {
			first = &State{Name: n, Time: c, Tomorrow: true}
		}

		at := c.On(now)
		if at.After(now) {
			return State{Name: n, Time: c, Remaining: secondsBetween(now, at)}, true
		}
	}

	if first == nil {
		return State{}, false
	}
	return *first, true
}

// secondsBetween counts whole seconds from a to b, truncating any fraction.
func secondsBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Second)
}
