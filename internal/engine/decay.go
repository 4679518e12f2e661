package engine

import (
	"math"
	"time"

	"github.com/physlab/atomrig/internal/atom"
	"github.com/physlab/atomrig/internal/device"
	"github.com/physlab/atomrig/internal/state"
	"github.com/physlab/atomrig/internal/storage"
)

// decayTick advances the decay simulation by one interval. The run's exit
// conditions (population exhausted, mode switched away, run stopped) are
// checked on every tick, not just at entry.
func (e *Engine) decayTick() {
	snap := e.st.Snapshot()

	if !e.decayActive {
		if snap.Mode == 6 && snap.DecayRunning {
			e.beginRun(snap)
		}
		return
	}

	if snap.Mode != 6 || !snap.DecayRunning {
		e.endRun(false)
		return
	}

	if e.restart.Swap(false) {
		e.beginRun(snap)
		return
	}

	// the half-life is captured at run start; changing it mid-run only
	// affects the next run, so the population stays non-increasing
	e.elapsed += e.cfg.DecayInterval.Seconds()
	remaining := int(float64(state.InitialPopulation) * math.Pow(0.5, e.elapsed/float64(e.runHalfLife)))
	lost := snap.DecayCount - remaining

	e.st.SetDecayCount(remaining)
	e.col.SetDecayCount(remaining)

	if lost > 0 {
		events := lost
		if events > e.cfg.EventCap {
			events = e.cfg.EventCap
		}
		for i := 0; i < events; i++ {
			e.emitDecayEvent()
		}
	}

	e.emit(device.Conf(atom.FillDisplay(remaining)))
	e.samples = append(e.samples, storage.Sample{Elapsed: e.elapsed, Count: remaining})

	if remaining <= 0 {
		e.st.SetDecayRunning(false)
		e.endRun(true)
	}
}

// emitDecayEvent draws a particle type and fires the matching display
// command and audible cue. Alphas get the longer pulse.
func (e *Engine) emitDecayEvent() {
	if e.rand.Float64() < e.cfg.AlphaProbability {
		e.emit(device.DecayAlpha)
		e.buzzer.Beep(50 * time.Millisecond)
		e.alphaEvents++
		e.col.IncDecayEvent("alpha")
	} else {
		e.emit(device.DecayBeta)
		e.buzzer.Beep(10 * time.Millisecond)
		e.betaEvents++
		e.col.IncDecayEvent("beta")
	}
}

func (e *Engine) beginRun(snap state.Snapshot) {
	e.decayActive = true
	e.restart.Store(false)
	e.elapsed = 0
	e.runStarted = e.now()
	e.runHalfLife = snap.DecayHalfLife
	e.samples = e.samples[:0]
	e.alphaEvents = 0
	e.betaEvents = 0
	e.st.SetDecayCount(state.InitialPopulation)
	e.col.SetDecayCount(state.InitialPopulation)
	e.log.Info("decay run started", "halflife", snap.DecayHalfLife)
}

func (e *Engine) endRun(completed bool) {
	e.decayActive = false
	e.log.Info("decay run finished",
		"completed", completed,
		"ticks", len(e.samples),
		"alpha", e.alphaEvents,
		"beta", e.betaEvents,
	)

	if e.history != nil && len(e.samples) > 0 {
		meta := storage.RunMetadata{
			Timestamp:         e.runStarted,
			HalfLife:          e.runHalfLife,
			InitialPopulation: state.InitialPopulation,
			FinalCount:        e.st.DecayCount(),
			Completed:         completed,
			AlphaEvents:       e.alphaEvents,
			BetaEvents:        e.betaEvents,
		}
		samples := make([]storage.Sample, len(e.samples))
		copy(samples, e.samples)
		if _, err := e.history.Save(meta, samples); err != nil {
			e.log.Warn("failed to persist decay run", "error", err)
		}
	}
	e.samples = nil
}
