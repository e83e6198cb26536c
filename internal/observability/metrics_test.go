// internal/observability/metrics_test.go
package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/qdevlab/magnetctl/internal/magnet"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	// The driver only sees the Observer contract.
	var obs magnet.Observer = m

	obs.RampStarted()
	obs.RampStarted()
	obs.RampCompleted(3 * time.Second)
	obs.RampAbnormal(magnet.StateQuenchDetected)
	obs.InterlockRejected()
	obs.HeaterTimedOut()
	obs.HeaterSwitched(true, time.Second)

	if got := testutil.ToFloat64(m.rampsStarted); got != 2 {
		t.Fatalf("ramps started = %g, want 2", got)
	}
	if got := testutil.ToFloat64(m.rampsCompleted); got != 1 {
		t.Fatalf("ramps completed = %g, want 1", got)
	}
	if got := testutil.ToFloat64(m.rampsAbnormal.WithLabelValues("quench detected")); got != 1 {
		t.Fatalf("abnormal ramps = %g, want 1", got)
	}
	if got := testutil.ToFloat64(m.interlockRejects); got != 1 {
		t.Fatalf("interlock rejections = %g, want 1", got)
	}
	if got := testutil.ToFloat64(m.heaterTimeouts); got != 1 {
		t.Fatalf("heater timeouts = %g, want 1", got)
	}
}

func TestMetrics_RegistersEverything(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	// Vec metrics only export once a child exists.
	m.HeaterSwitched(false, time.Second)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather err=%v", err)
	}
	// Histograms with no observations still register.
	want := map[string]bool{
		"magnet_ramp_duration_seconds":      false,
		"magnet_heater_transition_seconds":  false,
		"magnet_ramps_started_total":        false,
		"magnet_ramps_completed_total":      false,
		"magnet_interlock_rejections_total": false,
		"magnet_heater_timeouts_total":      false,
	}
	for _, f := range families {
		if _, ok := want[f.GetName()]; ok {
			want[f.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("metric %s not registered", name)
		}
	}
}
