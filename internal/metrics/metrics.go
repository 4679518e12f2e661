// Package metrics bundles the rig's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the rig metrics. All methods are safe on a nil receiver
// so instrumentation points can be left unwired in tests.
type Collector struct {
	gatherer prometheus.Gatherer

	DeviceCommands *prometheus.CounterVec
	DecayEvents    *prometheus.CounterVec
	ColorMatches   *prometheus.CounterVec
	Mode           prometheus.Gauge
	DecayCount     prometheus.Gauge
}

// NewCollector registers the rig metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atomrig_device_commands_total",
		Help: "Commands written to the display device, labeled by verb.",
	}, []string{"verb"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atomrig_decay_events_total",
		Help: "Emitted decay events, labeled by particle type.",
	}, []string{"particle"})
	matches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atomrig_color_matches_total",
		Help: "Classified color-sensor samples, labeled by matched color.",
	}, []string{"color"})
	mode := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atomrig_mode",
		Help: "Currently selected demonstration mode.",
	})
	count := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atomrig_decay_count",
		Help: "Remaining undecayed atoms in the current decay run.",
	})

	reg.MustRegister(commands, events, matches, mode, count)

	return &Collector{
		gatherer:       gatherer,
		DeviceCommands: commands,
		DecayEvents:    events,
		ColorMatches:   matches,
		Mode:           mode,
		DecayCount:     count,
	}
}

func (c *Collector) IncCommand(verb string) {
	if c == nil {
		return
	}
	c.DeviceCommands.WithLabelValues(verb).Inc()
}

func (c *Collector) IncDecayEvent(particle string) {
	if c == nil {
		return
	}
	c.DecayEvents.WithLabelValues(particle).Inc()
}

func (c *Collector) IncColorMatch(color string) {
	if c == nil {
		return
	}
	c.ColorMatches.WithLabelValues(color).Inc()
}

func (c *Collector) SetMode(m int) {
	if c == nil {
		return
	}
	c.Mode.Set(float64(m))
}

func (c *Collector) SetDecayCount(n int) {
	if c == nil {
		return
	}
	c.DecayCount.Set(float64(n))
}

// Handler serves the registered metrics over HTTP.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
