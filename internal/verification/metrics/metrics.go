package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the verification pipeline.
type Metrics struct {
	ReconcilesTotal    *prometheus.CounterVec
	ReconcileDuration  prometheus.Histogram
	ExpirySweepUpdates prometheus.Counter
	VerifiedEntities   *prometheus.GaugeVec
}

// New creates and registers all verification metrics.
func New() *Metrics {
	return &Metrics{
		ReconcilesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caretrust_verification_reconciles_total",
			Help: "Total reconciliations by outcome (updated, unchanged, error)",
		}, []string{"outcome"}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caretrust_verification_reconcile_duration_seconds",
			Help:    "Latency of single-entity reconciliation",
			Buckets: prometheus.DefBuckets,
		}),
		ExpirySweepUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caretrust_verification_expiry_sweep_updates_total",
			Help: "Documents whose expiry classification changed during sweeps",
		}),
		VerifiedEntities: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "caretrust_verification_verified_entities",
			Help: "Verified entities observed by the last batch reconciliation",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveReconcile(outcome string, d time.Duration) {
	m.ReconcilesTotal.WithLabelValues(outcome).Inc()
	m.ReconcileDuration.Observe(d.Seconds())
}

func (m *Metrics) AddSweepUpdates(n int) {
	m.ExpirySweepUpdates.Add(float64(n))
}

func (m *Metrics) SetVerifiedEntities(kind string, n int) {
	m.VerifiedEntities.WithLabelValues(kind).Set(float64(n))
}
