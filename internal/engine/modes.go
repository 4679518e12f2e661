package engine

import (
	"time"

	"github.com/physlab/atomrig/internal/atom"
	"github.com/physlab/atomrig/internal/colorid"
	"github.com/physlab/atomrig/internal/device"
)

// pollTick reads the sensors and runs the active mode's per-tick logic.
func (e *Engine) pollTick() {
	e.readSensors()

	snap := e.st.Snapshot()
	switch snap.Mode {
	case 2:
		e.tickExcitation(snap.Mode2Demo)
	case 3:
		e.tickThermo(snap.Temperature)
	case 4:
		e.tickPhoto(snap.LightLevel)
	case 5:
		e.tickBand(snap.LightLevel)
	}
	// modes 1 and 6 do nothing on the poll tick: the orbital browser is
	// operator-driven and mode 6 belongs to the decay loop
}

// readSensors refreshes temperature and light. A failed read keeps the
// last known value; an absent temperature probe reads as the fallback.
func (e *Engine) readSensors() {
	if e.sensors.Temp == nil {
		e.st.SetTemperature(25.0)
	} else if v, err := e.sensors.Temp.ReadTemperature(); err == nil {
		e.st.SetTemperature(v)
	}

	if e.sensors.Light != nil {
		if v, err := e.sensors.Light.ReadLight(); err == nil {
			e.st.SetLightLevel(v)
		}
	}
}

// tickExcitation samples the color sensor when the demo is live. After a
// match the sensor is left alone for the sample window so one card is not
// counted twice.
func (e *Engine) tickExcitation(demo bool) {
	if demo || e.sensors.Color == nil {
		return
	}
	if e.now().Sub(e.lastMatch) <= e.cfg.ColorSampleEvery {
		return
	}
	r, g, b, err := e.sensors.Color.ReadColor()
	if err != nil {
		return
	}
	name := e.colors.Classify(r, g, b)
	if name == colorid.NoMatch {
		return
	}
	e.col.IncColorMatch(name)
	e.transition(name)
	e.lastMatch = e.now()
}

func (e *Engine) tickThermo(temp float64) {
	diff := temp - 25.0
	if diff < 0 {
		diff = 0
	}
	speed := 1.0 + diff*0.8

	var color device.Command
	switch {
	case diff > 2.0:
		color = device.Color(255, 0, 0)
	case diff > 0.5:
		color = device.Color(255, 255, 0)
	default:
		color = device.Color(0, 255, 0)
	}
	e.emit(device.Speed(speed), color, device.Conf(atom.Config{K: 2, L: 4}))
}

func (e *Engine) tickPhoto(light int) {
	var conf atom.Config
	switch {
	case light < 30:
		conf = atom.Config{}
	case light < 100:
		conf = atom.Config{K: 1}
	case light < 180:
		conf = atom.Config{K: 2, L: 4}
	default:
		conf = atom.Config{K: 2, L: 8, M: 8, N: 4}
	}
	e.emit(device.Conf(conf), device.Speed(2.0))
}

func (e *Engine) tickBand(light int) {
	if light > 180 {
		// conduction band populated: gold
		e.emit(device.Conf(atom.Config{K: 2, L: 8, N: 4}), device.Color(255, 200, 0))
	} else {
		e.emit(device.Conf(atom.Config{K: 2, L: 8, M: 4}), device.Color(0, 0, 255))
	}
}

// transition implements the mode-2 excitation protocol. White is the
// de-excitation signal: flash the released photon, settle, then drop
// back to the base element. The excitation colors park a single electron
// in the matching shell.
func (e *Engine) transition(name string) {
	switch name {
	case "White":
		e.buzzer.Beep(300 * time.Millisecond)
		e.emit(device.Flash(0, 0, 255))
		e.sleep(e.cfg.SettleDelay)
		e.emit(device.Conf(atom.Lookup(e.st.Mode2Base())))
	case "Red":
		e.buzzer.Beep(100 * time.Millisecond)
		e.emit(device.Conf(atom.Config{L: 1}))
	case "Blue":
		e.buzzer.Beep(100 * time.Millisecond)
		e.emit(device.Conf(atom.Config{M: 1}))
	case "Violet":
		e.buzzer.Beep(100 * time.Millisecond)
		e.emit(device.Conf(atom.Config{N: 1}))
	}
}
