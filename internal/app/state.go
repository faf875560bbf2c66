// Package app holds the state shared by the live countdown and the HTTP API.
// The composition root creates one State and passes it to whoever needs it.
package app

import (
	"sync"
	"time"

	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
	"github.com/mustafadnc15/ezan-saati-pro/internal/qibla"
)

// State is the observer's location, its Qibla bearing, the prayer engine
// and the last upstream failure. It is safe for concurrent use.
type State struct {
	engine *prayer.Engine

	mu       sync.RWMutex
	location *geo.Location
	bearing  int
	err      error
	errAt    time.Time
}

// New returns an empty State around engine. A nil engine gets a fresh one
// on the system clock.
func New(engine *prayer.Engine) *State {
	if engine == nil {
		engine = prayer.NewEngine(nil)
	}
	return &State{engine: engine}
}

// Engine returns the prayer engine.
func (s *State) Engine() *prayer.Engine {
	return s.engine
}

// SetLocation stores loc and recomputes the bearing. The location is
// validated first; on error the previous location is kept.
func (s *State) SetLocation(loc geo.Location) error {
	if err := loc.Coordinate().Validate(); err != nil {
		return err
	}
	b := qibla.Bearing(loc.Coordinate())

	s.mu.Lock()
	s.location = &loc
	s.bearing = b
	s.mu.Unlock()
	return nil
}

// Location returns the current location. ok is false before the first
// SetLocation.
func (s *State) Location() (geo.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.location == nil {
		return geo.Location{}, false
	}
	return *s.location, true
}

// Bearing returns the Qibla bearing for the current location.
func (s *State) Bearing() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bearing, s.location != nil
}

// SetError records an upstream failure, or clears it when err is nil.
func (s *State) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.errAt = time.Now()
	s.mu.Unlock()
}

// Err returns the last recorded upstream failure.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Snapshot is a consistent read of everything the UI renders.
type Snapshot struct {
	Location    *geo.Location
	Bearing     int
	Next        prayer.State
	HasNext     bool
	Phase       prayer.Phase
	Err         error
	ErrObserved time.Time
}

// Snapshot ticks the engine and bundles the result with the location state.
// The next prayer and the phase come from the same engine reading.
func (s *State) Snapshot() Snapshot {
	next, phase, ok := s.engine.Observe()

	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Bearing:     s.bearing,
		Next:        next,
		HasNext:     ok,
		Phase:       phase,
		Err:         s.err,
		ErrObserved: s.errAt,
	}
	if s.location != nil {
		loc := *s.location
		snap.Location = &loc
	}
	return snap
}
