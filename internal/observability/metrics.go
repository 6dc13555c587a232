package observability

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Histogram bucket definitions. Derivations are in-memory and fast.
var derivationDurationBuckets = []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1}

// Derivation status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds all Prometheus metric instruments for the worklist.
type Metrics struct {
	// Derivation metrics
	DerivationsTotal   *prometheus.CounterVec
	DerivationDuration *prometheus.HistogramVec

	// Cache metrics
	ViewCacheHitsTotal   prometheus.Counter
	ViewCacheMissesTotal prometheus.Counter

	// Fixture metrics
	FixturesLoaded               prometheus.Gauge
	FixtureValidationErrorsTotal *prometheus.CounterVec

	// Patient metrics
	ActiveBlockers *prometheus.GaugeVec
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DerivationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worklist_derivations_total",
			Help: "Total number of derivations by component and status.",
		}, []string{"component", "status"}),
		DerivationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worklist_derivation_duration_seconds",
			Help:    "Derivation duration in seconds.",
			Buckets: derivationDurationBuckets,
		}, []string{"component"}),

		ViewCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worklist_view_cache_hits_total",
			Help: "Total number of worklist view cache hits.",
		}),
		ViewCacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worklist_view_cache_misses_total",
			Help: "Total number of worklist view cache misses.",
		}),

		FixturesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "worklist_fixtures_loaded",
			Help: "Number of patient fixtures currently loaded.",
		}),
		FixtureValidationErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worklist_fixture_validation_errors_total",
			Help: "Total number of fixture validation errors by code.",
		}, []string{"code"}),

		ActiveBlockers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worklist_active_blockers",
			Help: "Active blockers on the last derived view per patient.",
		}, []string{"patient_id"}),
	}

	reg.MustRegister(
		m.DerivationsTotal,
		m.DerivationDuration,
		m.ViewCacheHitsTotal,
		m.ViewCacheMissesTotal,
		m.FixturesLoaded,
		m.FixtureValidationErrorsTotal,
		m.ActiveBlockers,
	)

	return m
}

// --- Recording helpers ---
// All helpers are no-ops on a nil *Metrics.

// RecordDerivation records one derivation of component.
func (m *Metrics) RecordDerivation(component, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DerivationsTotal.WithLabelValues(component, status).Inc()
	m.DerivationDuration.WithLabelValues(component).Observe(duration.Seconds())
}

// RecordViewCacheHit records a view cache hit.
func (m *Metrics) RecordViewCacheHit() {
	if m == nil {
		return
	}
	m.ViewCacheHitsTotal.Inc()
}

// RecordViewCacheMiss records a view cache miss.
func (m *Metrics) RecordViewCacheMiss() {
	if m == nil {
		return
	}
	m.ViewCacheMissesTotal.Inc()
}

// SetFixturesLoaded sets the loaded fixture gauge.
func (m *Metrics) SetFixturesLoaded(count int) {
	if m == nil {
		return
	}
	m.FixturesLoaded.Set(float64(count))
}

// RecordFixtureValidationError records a fixture validation error.
func (m *Metrics) RecordFixtureValidationError(code string) {
	if m == nil {
		return
	}
	m.FixtureValidationErrorsTotal.WithLabelValues(code).Inc()
}

// SetActiveBlockers sets the active blocker gauge for a patient.
func (m *Metrics) SetActiveBlockers(patientID string, count int) {
	if m == nil {
		return
	}
	m.ActiveBlockers.WithLabelValues(patientID).Set(float64(count))
}

// WriteText gathers every metric family from g and writes it to w in the
// Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
