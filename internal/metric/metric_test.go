package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.Sent()
	m.Delivered()
	m.Dropped(ReasonControl)
	m.Replied()
	m.IOError(OpRead)
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Sent()
	m.Sent()
	m.Delivered()
	m.Dropped(ReasonFiltered)
	m.Replied()
	m.IOError(OpWrite)

	if got := testutil.ToFloat64(m.FramesSent); got != 2 {
		t.Errorf("frames_sent_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FramesDelivered); got != 1 {
		t.Errorf("frames_delivered_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FramesDropped.WithLabelValues(ReasonFiltered)); got != 1 {
		t.Errorf("frames_dropped_total{filtered} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IOErrors.WithLabelValues(OpWrite)); got != 1 {
		t.Errorf("io_errors_total{write} = %v, want 1", got)
	}
}

func TestDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("second registration did not panic")
		}
	}()
	New(reg)
}
