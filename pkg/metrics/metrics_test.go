package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveStart(3)
	m.ObserveHeader(44)
	m.ObserveSample(false)
	m.ObserveSample(true)
	m.ObserveRun(OutcomeDone)

	if got := testutil.ToFloat64(m.Ticks); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Bytes); got != 46 {
		t.Errorf("bytes = %v, want 46", got)
	}
	if got := testutil.ToFloat64(m.Clipped); got != 1 {
		t.Errorf("clipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Oscillators); got != 3 {
		t.Errorf("oscillators = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues(OutcomeDone)); got != 1 {
		t.Errorf("runs{done} = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveStart(1)
	m.ObserveHeader(44)
	m.ObserveSample(true)
	m.ObserveRun(OutcomeFailed)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveSample(false)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "oscgen_ticks_total 1") {
		t.Errorf("metrics body missing tick counter:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}

func TestHandlerAllowsCrossOriginScrapes(t *testing.T) {
	reg := prometheus.NewRegistry()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()

	Handler(reg).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
