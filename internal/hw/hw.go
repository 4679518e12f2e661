// Package hw defines the capability interfaces behind which the rig's
// sensors and buzzer live. Real drivers (1-wire probe, ADC, I2C color
// sensor, GPIO buzzer) plug in from the outside; a nil field in Sensors
// means that capability is absent, and the engine falls back per its
// error policy. The Sim* types stand in for hardware during development
// and in the console.
package hw

import (
	"math"
	"sync"
	"time"
)

// TemperatureSensor reads ambient temperature in degrees Celsius.
type TemperatureSensor interface {
	ReadTemperature() (float64, error)
}

// LightSensor reads the raw ambient-light ADC value (0-1023).
type LightSensor interface {
	ReadLight() (int, error)
}

// ColorSensor reads one reflected-color RGB sample (0-255 per channel).
type ColorSensor interface {
	ReadColor() (r, g, b int, err error)
}

// Buzzer sounds a tone for the given duration. Implementations must not
// block the caller for longer than the pulse itself.
type Buzzer interface {
	Beep(d time.Duration)
}

// Sensors groups the rig's inputs. Nil fields are absent hardware.
type Sensors struct {
	Temp  TemperatureSensor
	Light LightSensor
	Color ColorSensor
}

// NopBuzzer discards pulses.
type NopBuzzer struct{}

func (NopBuzzer) Beep(time.Duration) {}

// SimTemperature synthesizes a slow sine around Base, for running the rig
// without a probe.
type SimTemperature struct {
	Base   float64
	Amp    float64
	Period time.Duration

	start time.Time
	once  sync.Once
}

func (s *SimTemperature) ReadTemperature() (float64, error) {
	s.once.Do(func() { s.start = time.Now() })
	period := s.Period
	if period == 0 {
		period = 60 * time.Second
	}
	phase := time.Since(s.start).Seconds() / period.Seconds() * 2 * math.Pi
	return s.Base + s.Amp*math.Sin(phase), nil
}

// SimLight ramps the ADC value up and down across its full range.
type SimLight struct {
	Period time.Duration

	start time.Time
	once  sync.Once
}

func (s *SimLight) ReadLight() (int, error) {
	s.once.Do(func() { s.start = time.Now() })
	period := s.Period
	if period == 0 {
		period = 30 * time.Second
	}
	frac := math.Mod(time.Since(s.start).Seconds(), period.Seconds()) / period.Seconds()
	// triangle wave 0..1023..0
	if frac > 0.5 {
		frac = 1 - frac
	}
	return int(frac * 2 * 1023), nil
}

// SimColor cycles through a fixed sequence of samples, one step per read.
type SimColor struct {
	Samples [][3]int

	mu  sync.Mutex
	idx int
}

func (s *SimColor) ReadColor() (int, int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Samples) == 0 {
		return 0, 0, 0, nil
	}
	c := s.Samples[s.idx%len(s.Samples)]
	s.idx++
	return c[0], c[1], c[2], nil
}
