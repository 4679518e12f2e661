// Package state owns the single mutable record shared by the mode engine,
// the decay simulator, and the operator handlers. Updates are field-level;
// there are no cross-field transactions, and readers may observe two
// fields from different instants.
package state

import (
	"math"
	"sync"
)

const (
	// DefaultTemperature substitutes for an absent temperature probe.
	DefaultTemperature = 25.0
	// InitialPopulation is the decay simulation's starting atom count.
	InitialPopulation = 43
	// DefaultHalfLife is the decay half-life in seconds.
	DefaultHalfLife = 10
)

// Snapshot is a point-in-time copy of the shared record. JSON field names
// match what the web front end expects.
type Snapshot struct {
	Mode          int     `json:"mode"`
	Mode2Demo     bool    `json:"mode2_demo"`
	Mode2Base     string  `json:"mode2_base"`
	Temperature   float64 `json:"temp"`
	LightLevel    int     `json:"solar"`
	PhotoCurrent  float64 `json:"photo_current"`
	DecayCount    int     `json:"decay_count"`
	DecayHalfLife int     `json:"decay_halflife"`
	DecayRunning  bool    `json:"decay_running"`
}

// Store guards the shared record. One Store lives for the whole process.
type Store struct {
	mu sync.RWMutex
	s  Snapshot
}

func NewStore() *Store {
	return &Store{
		s: Snapshot{
			Mode:          1,
			Mode2Demo:     true,
			Mode2Base:     "Hydrogen",
			Temperature:   DefaultTemperature,
			DecayCount:    InitialPopulation,
			DecayHalfLife: DefaultHalfLife,
		},
	}
}

// Snapshot returns a copy of the full record.
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

func (st *Store) Mode() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Mode
}

func (st *Store) SetMode(m int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Mode = m
}

func (st *Store) Mode2Demo() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Mode2Demo
}

func (st *Store) SetMode2Demo(demo bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Mode2Demo = demo
}

func (st *Store) Mode2Base() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Mode2Base
}

func (st *Store) SetMode2Base(name string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Mode2Base = name
}

func (st *Store) Temperature() float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Temperature
}

// SetTemperature stores a sample rounded to 0.1 degrees.
func (st *Store) SetTemperature(v float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Temperature = math.Round(v*10) / 10
}

func (st *Store) LightLevel() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.LightLevel
}

// SetLightLevel stores a raw ADC sample and recomputes the derived
// photocurrent. PhotoCurrent is never set independently.
func (st *Store) SetLightLevel(v int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LightLevel = v
	st.s.PhotoCurrent = math.Round(float64(v)/235.0*50.0*10) / 10
}

func (st *Store) PhotoCurrent() float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.PhotoCurrent
}

func (st *Store) DecayCount() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.DecayCount
}

// SetDecayCount clamps to [0, InitialPopulation].
func (st *Store) SetDecayCount(n int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n > InitialPopulation {
		n = InitialPopulation
	}
	st.s.DecayCount = n
}

func (st *Store) DecayHalfLife() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.DecayHalfLife
}

// SetDecayHalfLife ignores non-positive values.
func (st *Store) SetDecayHalfLife(seconds int) {
	if seconds < 1 {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.DecayHalfLife = seconds
}

func (st *Store) DecayRunning() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.DecayRunning
}

func (st *Store) SetDecayRunning(running bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.DecayRunning = running
}
