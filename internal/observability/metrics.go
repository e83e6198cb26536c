// internal/observability/metrics.go

// Package observability exposes driver lifecycle events as prometheus
// metrics. It implements the magnet.Observer contract; the core driver
// never imports prometheus directly.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/qdevlab/magnetctl/internal/magnet"
)

// Metrics is the prometheus-backed magnet.Observer.
type Metrics struct {
	rampsStarted     prometheus.Counter
	rampsCompleted   prometheus.Counter
	rampsAbnormal    *prometheus.CounterVec
	interlockRejects prometheus.Counter
	heaterTimeouts   prometheus.Counter

	rampDuration     prometheus.Histogram
	heaterTransition *prometheus.HistogramVec
}

// New builds and registers the metric set on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rampsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "magnet_ramps_started_total",
			Help: "Ramp commands issued to the supply.",
		}),
		rampsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "magnet_ramps_completed_total",
			Help: "Blocking ramps that settled into holding.",
		}),
		rampsAbnormal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "magnet_ramps_abnormal_total",
			Help: "Blocking ramps that ended outside holding, by final state.",
		}, []string{"state"}),
		interlockRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "magnet_interlock_rejections_total",
			Help: "Ramp requests refused by the safety gate.",
		}),
		heaterTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "magnet_heater_timeouts_total",
			Help: "Switch heater transitions that did not confirm in time.",
		}),
		rampDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "magnet_ramp_duration_seconds",
			Help:    "Duration of completed blocking ramps.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		heaterTransition: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "magnet_heater_transition_seconds",
			Help:    "Duration of confirmed switch heater transitions.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"direction"}),
	}

	reg.MustRegister(
		m.rampsStarted,
		m.rampsCompleted,
		m.rampsAbnormal,
		m.interlockRejects,
		m.heaterTimeouts,
		m.rampDuration,
		m.heaterTransition,
	)
	return m
}

// ---- magnet.Observer ----

func (m *Metrics) RampStarted() {
	m.rampsStarted.Inc()
}

func (m *Metrics) RampCompleted(d time.Duration) {
	m.rampsCompleted.Inc()
	m.rampDuration.Observe(d.Seconds())
}

func (m *Metrics) RampAbnormal(state magnet.RampState) {
	m.rampsAbnormal.WithLabelValues(state.String()).Inc()
}

func (m *Metrics) InterlockRejected() {
	m.interlockRejects.Inc()
}

func (m *Metrics) HeaterSwitched(enable bool, d time.Duration) {
	direction := "cooling"
	if enable {
		direction = "heating"
	}
	m.heaterTransition.WithLabelValues(direction).Observe(d.Seconds())
}

func (m *Metrics) HeaterTimedOut() {
	m.heaterTimeouts.Inc()
}
