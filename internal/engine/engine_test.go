package engine

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/physlab/atomrig/internal/colorid"
	"github.com/physlab/atomrig/internal/device"
	"github.com/physlab/atomrig/internal/hw"
	"github.com/physlab/atomrig/internal/state"
)

type stubTemp struct {
	v   float64
	err error
}

func (s stubTemp) ReadTemperature() (float64, error) { return s.v, s.err }

type stubLight struct {
	v   int
	err error
}

func (s stubLight) ReadLight() (int, error) { return s.v, s.err }

type stubColor struct {
	r, g, b int
	err     error
}

func (s stubColor) ReadColor() (int, int, int, error) { return s.r, s.g, s.b, s.err }

type recordingBuzzer struct {
	pulses []time.Duration
}

func (b *recordingBuzzer) Beep(d time.Duration) { b.pulses = append(b.pulses, d) }

type testRig struct {
	engine *Engine
	store  *state.Store
	dev    *device.Recorder
	buzzer *recordingBuzzer
	clock  time.Time
	slept  []time.Duration
}

func newTestRig(sensors hw.Sensors, colors *colorid.Table) *testRig {
	rig := &testRig{
		store:  state.NewStore(),
		dev:    device.NewRecorder(),
		buzzer: &recordingBuzzer{},
		clock:  time.Unix(1000, 0),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rig.engine = New(Config{Seed: 1}, rig.store, rig.dev, sensors, rig.buzzer, colors, log)
	rig.engine.now = func() time.Time { return rig.clock }
	rig.engine.sleep = func(d time.Duration) { rig.slept = append(rig.slept, d) }
	return rig
}

func (r *testRig) advance(d time.Duration) { r.clock = r.clock.Add(d) }

func commandStrings(cmds []device.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = string(c)
	}
	return out
}

func expectCommands(t *testing.T, got []device.Command, expected ...string) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected %d commands, got %d: %v", len(expected), len(got), commandStrings(got))
	}
	for i := range expected {
		if string(got[i]) != expected[i] {
			t.Errorf("command %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

func TestSetMode_ResetSequence(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.engine.SetMode(3)

	expectCommands(t, rig.dev.Commands(),
		"MODE:NORMAL", "SPEED:1.0", "COLOR:0,255,255")
	if rig.store.Mode() != 3 {
		t.Errorf("expected mode 3, got %d", rig.store.Mode())
	}
}

func TestSetMode_StopsDecay(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.store.SetDecayRunning(true)

	rig.engine.SetMode(1)
	if rig.store.DecayRunning() {
		t.Error("mode switch should stop the decay run")
	}
}

func TestSetMode_Mode6Setup(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.engine.SetMode(6)

	expectCommands(t, rig.dev.Commands(),
		"MODE:NORMAL", "SPEED:1.0", "COLOR:0,255,255",
		"MODE:RADIO_ON", "CONF:2,8,8,16")
}

func TestSetMode_Mode5Setup(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.engine.SetMode(5)

	expectCommands(t, rig.dev.Commands(),
		"MODE:NORMAL", "SPEED:1.0", "COLOR:0,255,255", "MODE:BAND_ON")
}

func TestSetMode_Mode2AppliesBase(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.store.SetMode2Base("Carbon")
	rig.engine.SetMode(2)

	expectCommands(t, rig.dev.Commands(),
		"MODE:NORMAL", "SPEED:1.0", "COLOR:0,255,255", "CONF:2,4,0,0")
}

func TestSetMode_Idempotent(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)

	rig.engine.SetMode(6)
	first := rig.dev.Commands()
	rig.dev.Reset()
	rig.engine.SetMode(6)
	second := rig.dev.Commands()

	if len(first) != len(second) {
		t.Fatalf("sequences differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("command %d differs: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestSetMode_Invalid(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.engine.SetMode(9)

	if len(rig.dev.Commands()) != 0 {
		t.Error("invalid mode should emit nothing")
	}
	if rig.store.Mode() != 1 {
		t.Errorf("mode should be unchanged, got %d", rig.store.Mode())
	}
}

func TestPollTick_SensorFallbacks(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.store.SetTemperature(99.0)

	rig.engine.pollTick()
	if got := rig.store.Temperature(); got != 25.0 {
		t.Errorf("absent probe should read fallback 25.0, got %f", got)
	}
}

func TestPollTick_SensorFailureKeepsLastValue(t *testing.T) {
	sensors := hw.Sensors{
		Temp:  stubTemp{err: errors.New("bus error")},
		Light: stubLight{err: errors.New("bus error")},
	}
	rig := newTestRig(sensors, nil)
	rig.store.SetTemperature(27.5)
	rig.store.SetLightLevel(300)

	rig.engine.pollTick()
	if got := rig.store.Temperature(); got != 27.5 {
		t.Errorf("failed read should keep last temperature, got %f", got)
	}
	if got := rig.store.LightLevel(); got != 300 {
		t.Errorf("failed read should keep last light level, got %d", got)
	}
}

func TestThermoTick(t *testing.T) {
	tests := []struct {
		temp     float64
		speed    string
		color    string
	}{
		{25.0, "SPEED:1.0", "COLOR:0,255,0"},
		{20.0, "SPEED:1.0", "COLOR:0,255,0"},
		{26.0, "SPEED:1.8", "COLOR:255,255,0"},
		{28.0, "SPEED:3.4", "COLOR:255,0,0"},
	}

	for _, tt := range tests {
		rig := newTestRig(hw.Sensors{Temp: stubTemp{v: tt.temp}}, nil)
		rig.engine.SetMode(3)
		rig.dev.Reset()

		rig.engine.pollTick()
		expectCommands(t, rig.dev.Commands(), tt.speed, tt.color, "CONF:2,4,0,0")
	}
}

func TestPhotoTick(t *testing.T) {
	tests := []struct {
		light int
		conf  string
	}{
		{10, "CONF:0,0,0,0"},
		{50, "CONF:1,0,0,0"},
		{150, "CONF:2,4,0,0"},
		{500, "CONF:2,8,8,4"},
	}

	for _, tt := range tests {
		rig := newTestRig(hw.Sensors{Light: stubLight{v: tt.light}}, nil)
		rig.engine.SetMode(4)
		rig.dev.Reset()

		rig.engine.pollTick()
		expectCommands(t, rig.dev.Commands(), tt.conf, "SPEED:2.0")
	}
}

func TestBandTick(t *testing.T) {
	rig := newTestRig(hw.Sensors{Light: stubLight{v: 500}}, nil)
	rig.engine.SetMode(5)
	rig.dev.Reset()
	rig.engine.pollTick()
	expectCommands(t, rig.dev.Commands(), "CONF:2,8,0,4", "COLOR:255,200,0")

	rig = newTestRig(hw.Sensors{Light: stubLight{v: 100}}, nil)
	rig.engine.SetMode(5)
	rig.dev.Reset()
	rig.engine.pollTick()
	expectCommands(t, rig.dev.Commands(), "CONF:2,8,4,0", "COLOR:0,0,255")
}

func TestTransition_White(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.store.SetMode(2)
	rig.store.SetMode2Base("Oxygen")

	rig.engine.SimulateColor("White")

	expectCommands(t, rig.dev.Commands(), "FLASH:0,0,255", "CONF:2,6,0,0")
	if len(rig.buzzer.pulses) != 1 || rig.buzzer.pulses[0] != 300*time.Millisecond {
		t.Errorf("expected one long pulse, got %v", rig.buzzer.pulses)
	}
	if len(rig.slept) != 1 {
		t.Errorf("expected one settle delay, got %v", rig.slept)
	}
}

func TestTransition_ExcitationColors(t *testing.T) {
	tests := []struct {
		color string
		conf  string
	}{
		{"Red", "CONF:0,1,0,0"},
		{"Blue", "CONF:0,0,1,0"},
		{"Violet", "CONF:0,0,0,1"},
	}

	for _, tt := range tests {
		rig := newTestRig(hw.Sensors{}, nil)
		rig.store.SetMode(2)

		rig.engine.SimulateColor(tt.color)
		expectCommands(t, rig.dev.Commands(), tt.conf)
		if len(rig.buzzer.pulses) != 1 || rig.buzzer.pulses[0] != 100*time.Millisecond {
			t.Errorf("%s: expected one short pulse, got %v", tt.color, rig.buzzer.pulses)
		}
	}
}

func TestTransition_UnknownColorIsNoop(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.store.SetMode(2)

	rig.engine.SimulateColor("Chartreuse")
	if len(rig.dev.Commands()) != 0 {
		t.Error("unknown color should emit nothing")
	}
}

func TestSimulateColor_IgnoredOutsideMode2(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.store.SetMode(3)

	rig.engine.SimulateColor("Red")
	if len(rig.dev.Commands()) != 0 {
		t.Error("simulate color outside mode 2 should emit nothing")
	}
}

func TestColorSampling(t *testing.T) {
	table := colorid.New([]colorid.Reference{
		{Name: "Red", RGB: [3]int{255, 0, 0}},
	})
	rig := newTestRig(hw.Sensors{Color: stubColor{r: 250, g: 5, b: 5}}, table)
	rig.store.SetMode(2)
	rig.store.SetMode2Demo(false)

	// first sample beyond the window triggers a transition
	rig.advance(2 * time.Second)
	rig.engine.pollTick()
	expectCommands(t, rig.dev.Commands(), "CONF:0,1,0,0")

	// within the window the sensor is not consulted again
	rig.dev.Reset()
	rig.advance(time.Second)
	rig.engine.pollTick()
	if len(rig.dev.Commands()) != 0 {
		t.Error("sample window should suppress a second read")
	}

	// past the window it fires again
	rig.advance(time.Second)
	rig.engine.pollTick()
	expectCommands(t, rig.dev.Commands(), "CONF:0,1,0,0")
}

func TestColorSampling_DemoModeSkipsSensor(t *testing.T) {
	table := colorid.New([]colorid.Reference{
		{Name: "Red", RGB: [3]int{255, 0, 0}},
	})
	rig := newTestRig(hw.Sensors{Color: stubColor{r: 250, g: 5, b: 5}}, table)
	rig.store.SetMode(2)
	rig.store.SetMode2Demo(true)

	rig.advance(2 * time.Second)
	rig.engine.pollTick()
	if len(rig.dev.Commands()) != 0 {
		t.Error("demo mode should not read the color sensor")
	}
}

func TestLoadElement(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)

	rig.engine.LoadElement("Neon")
	expectCommands(t, rig.dev.Commands(), "CONF:2,8,0,0")

	rig.dev.Reset()
	rig.engine.LoadElement("Adamantium")
	if len(rig.dev.Commands()) != 0 {
		t.Error("unknown element should emit nothing")
	}
}

func TestSetMode2Base_PushesWhileActive(t *testing.T) {
	rig := newTestRig(hw.Sensors{}, nil)
	rig.store.SetMode(2)

	rig.engine.SetMode2Base("Lithium")
	expectCommands(t, rig.dev.Commands(), "CONF:2,1,0,0")

	rig.dev.Reset()
	rig.store.SetMode(1)
	rig.engine.SetMode2Base("Boron")
	if len(rig.dev.Commands()) != 0 {
		t.Error("base change outside mode 2 should not push")
	}
	if rig.store.Mode2Base() != "Boron" {
		t.Errorf("base should still be stored, got %s", rig.store.Mode2Base())
	}
}
