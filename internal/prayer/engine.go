package prayer

import (
	"sync/atomic"
	"time"
)

// Phase is the engine's position in its per-day lifecycle.
type Phase int

const (
	// PhaseNoData means no timetable has been loaded.
	PhaseNoData Phase = iota
	// PhaseReady means the loaded timetable describes the current day.
	PhaseReady
	// PhaseStale means a new day has begun since the timetable was loaded;
	// the owner should fetch and Load a replacement.
	PhaseStale
)

func (p Phase) String() string {
	switch p {
	case PhaseNoData:
		return "no-data"
	case PhaseReady:
		return "ready"
	case PhaseStale:
		return "stale"
	}
	return "unknown"
}

// Engine holds the current timetable snapshot and derives the next-prayer
// state from it. Load swaps the whole snapshot atomically, so a concurrent
// Tick observes either the old or the new timetable, never a mix.
type Engine struct {
	timetable atomic.Pointer[Timetable]
	now       func() time.Time
}

// NewEngine returns an engine reading the current instant from now. A nil
// now uses time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Load replaces the timetable.
func (e *Engine) Load(tt *Timetable) {
	e.timetable.Store(tt)
}

// Clear drops the timetable, returning the engine to PhaseNoData.
func (e *Engine) Clear() {
	e.timetable.Store(nil)
}

// Timetable returns the current snapshot, or nil.
func (e *Engine) Timetable() *Timetable {
	return e.timetable.Load()
}

// Phase reports the lifecycle phase at the engine's current instant.
func (e *Engine) Phase() Phase {
	return phaseOf(e.timetable.Load(), e.now())
}

// Tick recomputes the next-prayer state. ok is false unless the loaded
// timetable describes the current day: a stale timetable would count down
// to yesterday's times.
func (e *Engine) Tick() (State, bool) {
	s, _, ok := e.Observe()
	return s, ok
}

// Observe reads the timetable and the clock once and derives both the
// next-prayer state and the phase from that single reading.
func (e *Engine) Observe() (State, Phase, bool) {
	tt, now := e.timetable.Load(), e.now()
	phase := phaseOf(tt, now)
	if phase != PhaseReady {
		return State{}, phase, false
	}
	s, ok := SelectNext(tt, now)
	return s, phase, ok
}

func phaseOf(tt *Timetable, now time.Time) Phase {
	switch {
	case tt == nil:
		return PhaseNoData
	case tt.SameDay(now):
		return PhaseReady
	default:
		return PhaseStale
	}
}
