// Package metrics exposes generator counters to Prometheus
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes
const (
	OutcomeDone      = "done"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
	OutcomeEmpty     = "empty"
)

// Metrics holds the counters updated by a Generator. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Ticks        prometheus.Counter
	Bytes        prometheus.Counter
	Clipped      prometheus.Counter
	Oscillators  prometheus.Gauge
	Runs         *prometheus.CounterVec
	HeaderWrites prometheus.Counter
}

// New registers the generator metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "oscgen_ticks_total",
			Help: "Total samples generated",
		}),
		Bytes: f.NewCounter(prometheus.CounterOpts{
			Name: "oscgen_output_bytes_total",
			Help: "Total bytes written to the output sink, headers included",
		}),
		Clipped: f.NewCounter(prometheus.CounterOpts{
			Name: "oscgen_clipped_samples_total",
			Help: "Samples whose mix fell outside the 8-bit range and was clamped",
		}),
		Oscillators: f.NewGauge(prometheus.GaugeOpts{
			Name: "oscgen_oscillators",
			Help: "Number of oscillators in the current run",
		}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oscgen_runs_total",
			Help: "Generator runs by outcome",
		}, []string{"outcome"}),
		HeaderWrites: f.NewCounter(prometheus.CounterOpts{
			Name: "oscgen_container_headers_total",
			Help: "Container headers written",
		}),
	}
}

// ObserveSample records one written sample
func (m *Metrics) ObserveSample(clipped bool) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.Bytes.Inc()
	if clipped {
		m.Clipped.Inc()
	}
}

// ObserveHeader records a container header of n bytes
func (m *Metrics) ObserveHeader(n int) {
	if m == nil {
		return
	}
	m.HeaderWrites.Inc()
	m.Bytes.Add(float64(n))
}

// ObserveStart records the oscillator count of a starting run
func (m *Metrics) ObserveStart(oscillators int) {
	if m == nil {
		return
	}
	m.Oscillators.Set(float64(oscillators))
}

// ObserveRun records how a run ended
func (m *Metrics) ObserveRun(outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
}

// Handler serves /metrics from g and a /healthz probe
func Handler(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	}))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return r
}
