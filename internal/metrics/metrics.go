package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds all Prometheus metrics for the ranking pipeline. Each
// pipeline run shares one Registry; collectors are registered on a private
// prometheus.Registry so tests can run side by side without collisions.
type Registry struct {
	// Data quality: per-record skips, never fatal to the run
	SkippedRecords *prometheus.CounterVec

	// Calculation anomalies: values clamped back into bounds, by stage
	CalcAnomalies *prometheus.CounterVec

	// Adjustment layer degradations: fallback to unadjusted blend, by cause
	AdjustmentFallbacks *prometheus.CounterVec

	// Cohort run outcomes and timings
	CohortRuns     *prometheus.CounterVec
	CohortDuration prometheus.Histogram
	TeamsRanked    *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewRegistry creates a metrics registry with all pipeline metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		SkippedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoutrank_skipped_records_total",
				Help: "Total match records skipped during ingestion by reason",
			},
			[]string{"reason"},
		),

		CalcAnomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoutrank_calc_anomalies_total",
				Help: "Total out-of-bound values clamped during computation by stage",
			},
			[]string{"stage"},
		),

		AdjustmentFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoutrank_adjustment_fallbacks_total",
				Help: "Total fallbacks to the unadjusted blend by cause",
			},
			[]string{"cause"},
		),

		CohortRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoutrank_cohort_runs_total",
				Help: "Total cohort computations by terminal status",
			},
			[]string{"status"},
		),

		CohortDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scoutrank_cohort_duration_seconds",
				Help:    "Wall-clock duration of one cohort computation",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		TeamsRanked: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scoutrank_teams_ranked",
				Help: "Teams assigned a rank in the most recent run of a cohort",
			},
			[]string{"cohort"},
		),

		registry: prometheus.NewRegistry(),
	}

	r.registry.MustRegister(
		r.SkippedRecords,
		r.CalcAnomalies,
		r.AdjustmentFallbacks,
		r.CohortRuns,
		r.CohortDuration,
		r.TeamsRanked,
	)

	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// CounterValue reads back a counter for operator tooling and tests. Labels
// must match exactly; a missing series reads as zero.
func (r *Registry) CounterValue(name string, labels map[string]string) (float64, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return 0, fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetCounter().GetValue(), nil
			}
		}
	}

	return 0, nil
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	if len(got) != len(want) {
		return false
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}
