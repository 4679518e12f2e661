package engine

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/physlab/atomrig/internal/hw"
	"github.com/physlab/atomrig/internal/storage"
)

var _ = Describe("decay simulator", func() {
	var rig *testRig

	BeforeEach(func() {
		rig = newTestRig(hw.Sensors{}, nil)
		rig.engine.SetMode(6)
		rig.dev.Reset()
	})

	startRun := func() {
		rig.engine.StartDecay()
		rig.engine.decayTick() // arming tick, resets the population
	}

	countDecayCommands := func() (alpha, beta, conf int) {
		for _, c := range rig.dev.Commands() {
			s := string(c)
			switch {
			case s == "DECAY:ALPHA":
				alpha++
			case s == "DECAY:BETA":
				beta++
			case strings.HasPrefix(s, "CONF:"):
				conf++
			}
		}
		return
	}

	It("stays idle until a start is requested", func() {
		rig.engine.decayTick()
		rig.engine.decayTick()
		Expect(rig.store.DecayCount()).To(Equal(43))
		Expect(rig.dev.Commands()).To(BeEmpty())
	})

	It("resets the population when a run starts", func() {
		rig.store.SetDecayCount(7)
		startRun()
		Expect(rig.store.DecayCount()).To(Equal(43))
	})

	It("follows the exponential law and emits events", func() {
		rig.engine.SetHalfLife(10)
		startRun()

		prev := 43
		for i := 0; i < 20; i++ {
			rig.engine.decayTick()
			count := rig.store.DecayCount()
			Expect(count).To(BeNumerically("<=", prev), "population must be non-increasing")
			prev = count
		}

		// 10 seconds elapsed at half-life 10: one half-life gone
		Expect(rig.store.DecayCount()).To(Equal(21))

		alpha, beta, conf := countDecayCommands()
		Expect(alpha + beta).To(BeNumerically(">", 0))
		Expect(conf).To(Equal(20), "population re-rendered after every tick")
	})

	It("decays from 43 within the first few ticks", func() {
		rig.engine.SetHalfLife(10)
		startRun()

		for i := 0; i < 5; i++ {
			rig.engine.decayTick()
		}

		Expect(rig.store.DecayCount()).To(BeNumerically("<", 43))
		alpha, beta, _ := countDecayCommands()
		Expect(alpha + beta).To(BeNumerically(">", 0))
	})

	It("runs to zero and auto-clears the running flag", func() {
		rig.engine.SetHalfLife(2)
		startRun()

		for i := 0; i < 200 && rig.store.DecayCount() > 0; i++ {
			rig.engine.decayTick()
		}

		Expect(rig.store.DecayCount()).To(Equal(0))
		Expect(rig.store.DecayRunning()).To(BeFalse())
	})

	It("stops when the operator leaves mode 6", func() {
		startRun()
		rig.engine.decayTick()

		rig.engine.SetMode(1)
		rig.engine.decayTick() // observes the exit condition

		count := rig.store.DecayCount()
		rig.engine.decayTick()
		Expect(rig.store.DecayCount()).To(Equal(count), "no further decay after cancellation")
	})

	It("does not resume when mode 6 is re-entered without a start", func() {
		startRun()
		for i := 0; i < 4; i++ {
			rig.engine.decayTick()
		}
		rig.engine.SetMode(1)
		rig.engine.decayTick()

		rig.engine.SetMode(6)
		before := rig.store.DecayCount()
		rig.engine.decayTick()
		rig.engine.decayTick()
		Expect(rig.store.DecayCount()).To(Equal(before))
	})

	It("keeps the half-life captured at run start when it changes mid-run", func() {
		rig.engine.SetHalfLife(2)
		startRun()
		for i := 0; i < 8; i++ {
			rig.engine.decayTick()
		}
		before := rig.store.DecayCount()
		Expect(before).To(BeNumerically("<", 43))

		rig.engine.SetHalfLife(50)
		rig.engine.decayTick()
		Expect(rig.store.DecayCount()).To(BeNumerically("<=", before),
			"population must not grow when the half-life is raised mid-run")

		// the new half-life applies from the next run
		rig.engine.StartDecay()
		rig.engine.decayTick()
		Expect(rig.engine.runHalfLife).To(Equal(50))
	})

	It("restarts from the full population on a new start request", func() {
		rig.engine.SetHalfLife(2)
		startRun()
		for i := 0; i < 8; i++ {
			rig.engine.decayTick()
		}
		Expect(rig.store.DecayCount()).To(BeNumerically("<", 43))

		rig.engine.StartDecay()
		rig.engine.decayTick() // restart observed
		Expect(rig.store.DecayCount()).To(Equal(43))
	})

	It("sounds a cue per decay event", func() {
		rig.engine.SetHalfLife(5)
		startRun()
		for i := 0; i < 10; i++ {
			rig.engine.decayTick()
		}

		alpha, beta, _ := countDecayCommands()
		Expect(len(rig.buzzer.pulses)).To(Equal(alpha + beta))
		for _, p := range rig.buzzer.pulses {
			Expect(p).To(Or(Equal(50*time.Millisecond), Equal(10*time.Millisecond)))
		}
	})

	It("persists finished runs when a history store is attached", func() {
		dir := GinkgoT().TempDir()
		hist := storage.New(dir)
		Expect(hist.Init()).To(Succeed())
		rig.engine.AttachHistory(hist)

		rig.engine.SetHalfLife(2)
		startRun()
		for i := 0; i < 200 && rig.store.DecayCount() > 0; i++ {
			rig.engine.decayTick()
		}

		runs, err := hist.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].Completed).To(BeTrue())
		Expect(runs[0].HalfLife).To(Equal(2))
		Expect(runs[0].FinalCount).To(Equal(0))
		Expect(runs[0].AlphaEvents + runs[0].BetaEvents).To(BeNumerically(">", 0))
	})
})
