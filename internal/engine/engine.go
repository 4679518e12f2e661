// Package engine runs the rig's always-on control logic: a sensor/mode
// tick loop, the radioactive-decay simulator, and the operator-triggered
// transitions. All device traffic funnels through here.
package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/physlab/atomrig/internal/atom"
	"github.com/physlab/atomrig/internal/colorid"
	"github.com/physlab/atomrig/internal/device"
	"github.com/physlab/atomrig/internal/hw"
	"github.com/physlab/atomrig/internal/metrics"
	"github.com/physlab/atomrig/internal/state"
	"github.com/physlab/atomrig/internal/storage"
)

// Config holds the engine's timing and the decay calibration constants.
// AlphaProbability and EventCap are tuning values inherited from the
// rig's field calibration, not derived from physics.
type Config struct {
	PollInterval     time.Duration
	DecayInterval    time.Duration
	ColorSampleEvery time.Duration
	SettleDelay      time.Duration
	AlphaProbability float64
	EventCap         int
	Seed             int64
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.DecayInterval <= 0 {
		c.DecayInterval = 500 * time.Millisecond
	}
	if c.ColorSampleEvery <= 0 {
		c.ColorSampleEvery = 1500 * time.Millisecond
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 500 * time.Millisecond
	}
	if c.AlphaProbability <= 0 {
		c.AlphaProbability = 0.3
	}
	if c.EventCap <= 0 {
		c.EventCap = 2
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

type Engine struct {
	cfg     Config
	st      *state.Store
	dev     device.Sender
	sensors hw.Sensors
	buzzer  hw.Buzzer
	colors  *colorid.Table
	log     *slog.Logger
	col     *metrics.Collector
	history *storage.Store

	// cmdMu keeps multi-command bursts (mode switch reset+setup,
	// transitions) contiguous on the wire.
	cmdMu sync.Mutex

	rand  *rand.Rand
	now   func() time.Time
	sleep func(time.Duration)

	lastMatch time.Time

	// decay run bookkeeping, touched only by the decay loop
	decayActive bool
	elapsed     float64
	restart     atomic.Bool
	runStarted  time.Time
	runHalfLife int
	samples     []storage.Sample
	alphaEvents int
	betaEvents  int
}

func New(cfg Config, st *state.Store, dev device.Sender, sensors hw.Sensors, buzzer hw.Buzzer, colors *colorid.Table, log *slog.Logger) *Engine {
	cfg = cfg.withDefaults()
	if buzzer == nil {
		buzzer = hw.NopBuzzer{}
	}
	if colors == nil {
		colors = colorid.Empty()
	}
	return &Engine{
		cfg:     cfg,
		st:      st,
		dev:     dev,
		sensors: sensors,
		buzzer:  buzzer,
		colors:  colors,
		log:     log,
		rand:    rand.New(rand.NewSource(cfg.Seed)),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// AttachMetrics wires the Prometheus collector. Optional.
func (e *Engine) AttachMetrics(col *metrics.Collector) {
	e.col = col
}

// AttachHistory wires the decay-run history store. Optional.
func (e *Engine) AttachHistory(h *storage.Store) {
	e.history = h
}

// Run starts the two background loops. They live until ctx is cancelled,
// which in production is process exit.
func (e *Engine) Run(ctx context.Context) {
	go e.loop(ctx, e.cfg.PollInterval, e.pollTick)
	go e.loop(ctx, e.cfg.DecayInterval, e.decayTick)
}

func (e *Engine) loop(ctx context.Context, every time.Duration, tick func()) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tick()
		}
	}
}

// emit writes a burst of commands with no other burst interleaved.
func (e *Engine) emit(cmds ...device.Command) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()
	for _, c := range cmds {
		e.dev.Send(c)
	}
}

// SetMode selects a demonstration mode. Any switch stops a decay run and
// resets the display before mode-specific setup. Values outside 1..6 are
// ignored.
func (e *Engine) SetMode(m int) {
	if m < 1 || m > 6 {
		e.log.Warn("ignoring unknown mode", "mode", m)
		return
	}
	e.st.SetMode(m)
	e.st.SetDecayRunning(false)
	e.col.SetMode(m)

	cmds := []device.Command{device.ModeNormal, device.Speed(1.0), device.Color(0, 255, 255)}
	switch m {
	case 2:
		cmds = append(cmds, device.Conf(atom.Lookup(e.st.Mode2Base())))
	case 5:
		cmds = append(cmds, device.ModeBandOn)
	case 6:
		// full atom on the ring while waiting for the run to start
		cmds = append(cmds, device.ModeRadioOn, device.Conf(atom.Config{K: 2, L: 8, M: 8, N: 16}))
	}
	e.emit(cmds...)
	e.log.Info("mode selected", "mode", m)
}

// SetMode2Kind switches the excitation demo between operator-simulated
// and sensor-driven color input.
func (e *Engine) SetMode2Kind(demo bool) {
	e.st.SetMode2Demo(demo)
}

// SetMode2Base selects the atom de-excitation returns to. While mode 2 is
// active the new base is pushed to the display immediately.
func (e *Engine) SetMode2Base(name string) {
	e.st.SetMode2Base(name)
	if e.st.Mode() == 2 {
		e.emit(device.Conf(atom.Lookup(name)))
	}
}

// SimulateColor feeds a color name into the transition protocol, as if
// the sensor had seen it. Only honored in mode 2.
func (e *Engine) SimulateColor(name string) {
	if e.st.Mode() != 2 {
		return
	}
	e.transition(name)
}

// LoadElement pushes an element's configuration to the display (mode 1
// browser). Unknown elements are ignored.
func (e *Engine) LoadElement(name string) {
	if !atom.Known(name) {
		e.log.Debug("ignoring unknown element", "element", name)
		return
	}
	e.emit(device.Conf(atom.Lookup(name)))
}

func (e *Engine) SetHalfLife(seconds int) {
	e.st.SetDecayHalfLife(seconds)
}

// StartDecay (re)starts a decay run from the full population. Has effect
// on the next decay tick while mode 6 is active.
func (e *Engine) StartDecay() {
	e.restart.Store(true)
	e.st.SetDecayRunning(true)
}
