// Package metrics collects and exposes Prometheus metrics for the
// precharge-sequencer daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/precharge-sequencer/internal/sequencer"
)

// Collector holds the daemon's Prometheus metrics. Metrics register on
// a per-collector registry, not the process default, so tests can
// construct collectors freely without duplicate-registration panics.
type Collector struct {
	reg *prometheus.Registry

	transitions *prometheus.CounterVec
	mainCloses  prometheus.Counter
	mainOpens   prometheus.Counter
	faults      prometheus.Counter
	aborts      prometheus.Counter

	stateCode      prometheus.Gauge
	capVoltage     prometheus.Gauge
	attemptSeconds prometheus.Gauge

	prechargeDuration prometheus.Histogram
}

// NewCollector creates a Collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "precharge_transitions_total",
			Help: "Total sequencer state transitions by event",
		}, []string{"event"}),
		mainCloses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "precharge_main_closes_total",
			Help: "Total main contactor close operations",
		}),
		mainOpens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "precharge_main_opens_total",
			Help: "Total main contactor open operations",
		}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "precharge_faults_total",
			Help: "Total precharge attempts that timed out",
		}),
		aborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "precharge_aborts_total",
			Help: "Total precharge attempts aborted by estop or disconnect",
		}),
		stateCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "precharge_state",
			Help: "Current sequencer state code (0=IDLE .. 6=FAULT)",
		}),
		capVoltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "precharge_cap_voltage_volts",
			Help: "Measured bus-capacitor voltage",
		}),
		attemptSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "precharge_attempt_seconds",
			Help: "Elapsed time in the current precharge attempt",
		}),
		prechargeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "precharge_duration_seconds",
			Help:    "Precharge duration at main contactor close",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	c.reg.MustRegister(
		c.transitions,
		c.mainCloses,
		c.mainOpens,
		c.faults,
		c.aborts,
		c.stateCode,
		c.capVoltage,
		c.attemptSeconds,
		c.prechargeDuration,
	)
	return c
}

// RecordTransition counts one state transition.
func (c *Collector) RecordTransition(ev sequencer.Event) {
	c.transitions.WithLabelValues(string(ev.Type)).Inc()
	switch ev.Type {
	case sequencer.EventMainClosed:
		c.mainCloses.Inc()
		c.prechargeDuration.Observe(ev.Signals.Timer)
	case sequencer.EventMainOpening:
		c.mainOpens.Inc()
	case sequencer.EventPrechargeFault:
		c.faults.Inc()
	case sequencer.EventPrechargeAbort:
		c.aborts.Inc()
	}
}

// UpdateState sets the instantaneous gauges from the latest sample.
func (c *Collector) UpdateState(state sequencer.State, capVoltage, attemptTimer float64) {
	c.stateCode.Set(float64(state))
	c.capVoltage.Set(capVoltage)
	c.attemptSeconds.Set(attemptTimer)
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
