package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCycle(t *testing.T) {
	m := New()
	m.ObserveCycle(10*time.Millisecond, false)
	m.ObserveCycle(20*time.Millisecond, true)

	if got := testutil.ToFloat64(m.Cycles); got != 2 {
		t.Errorf("Expected 2 cycles, got %v", got)
	}
	if got := testutil.ToFloat64(m.DetectorFailures); got != 1 {
		t.Errorf("Expected 1 failure, got %v", got)
	}
}

func TestObserveAnnotation(t *testing.T) {
	m := New()
	m.ObserveAnnotation("sharp")
	m.ObserveAnnotation("sharp")
	m.ObserveAnnotation("blurred")

	if got := testutil.ToFloat64(m.Annotations.WithLabelValues("sharp")); got != 2 {
		t.Errorf("Expected 2 sharp annotations, got %v", got)
	}
	if got := testutil.ToFloat64(m.Annotations.WithLabelValues("blurred")); got != 1 {
		t.Errorf("Expected 1 blurred annotation, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveCycle(time.Second, true)
	m.ObserveAnnotation("sharp")
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCycle(time.Millisecond, false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "focus_overlay_cycles_total 1") {
		t.Errorf("Expected cycle counter in output, got:\n%s", rec.Body.String())
	}
}
