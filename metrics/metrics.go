package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the record store.
// Tracks mutation outcomes, guard rejections, cache refresh latency and
// the number of cached records per collection.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	GuardRejections *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	Records         *prometheus.GaugeVec
}

// New creates a Metrics instance registered on reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "landbook_mutations_total",
			Help: "Total number of mutating operations by collection, operation and outcome",
		}, []string{"collection", "op", "outcome"}),
		GuardRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "landbook_guard_rejections_total",
			Help: "Mutations rejected by reference or dependent-record checks",
		}, []string{"collection", "reason"}),
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "landbook_cache_refresh_duration_seconds",
			Help:    "Duration of full cache refreshes from the store",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		Records: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "landbook_records",
			Help: "Number of records currently cached per collection",
		}, []string{"collection"}),
	}
}

// ObserveMutation records the outcome of a create, update or remove.
func (m *Metrics) ObserveMutation(collection, op, outcome string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(collection, op, outcome).Inc()
}

// IncGuardRejection records a mutation blocked by the integrity guard.
func (m *Metrics) IncGuardRejection(collection, reason string) {
	if m == nil {
		return
	}
	m.GuardRejections.WithLabelValues(collection, reason).Inc()
}

// ObserveRefresh records the duration of a cache refresh.
// Call with time.Now() at the start of the refresh.
func (m *Metrics) ObserveRefresh(start time.Time) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(time.Since(start).Seconds())
}

// SetRecords publishes the cached record count of a collection.
func (m *Metrics) SetRecords(collection string, n int) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(collection).Set(float64(n))
}
