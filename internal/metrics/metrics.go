// Package metrics holds the Prometheus collectors for the simulation
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors exported on /metrics.
type Metrics struct {
	RequestCounter  *prometheus.CounterVec   // requests by route and status
	RequestDuration *prometheus.HistogramVec // request latency by route

	ProjectionsTotal  *prometheus.CounterVec // projections by outcome
	ProjectionSeconds prometheus.Histogram   // single-projection wall time

	BatchScenarios prometheus.Histogram // scenarios per batch
	SweepCells     prometheus.Histogram // cells per sensitivity grid

	TippingPoints *prometheus.CounterVec // detected tipping points by leader
}

// Register creates the collectors and registers them with r.
func Register(r prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wealthsim_requests_total",
				Help: "Total number of API requests processed",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wealthsim_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ProjectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wealthsim_projections_total",
				Help: "Total number of wealth projections by outcome",
			},
			[]string{"outcome"},
		),
		ProjectionSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wealthsim_projection_duration_seconds",
				Help:    "Wall time of a single wealth projection",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
		),
		BatchScenarios: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wealthsim_batch_scenarios",
				Help:    "Number of scenarios per batch run",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
		SweepCells: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wealthsim_sweep_cells",
				Help:    "Number of cells per sensitivity grid",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
		),
		TippingPoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wealthsim_tipping_points_total",
				Help: "Detected tipping points by leading strategy",
			},
			[]string{"leader"},
		),
	}

	r.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.ProjectionsTotal,
		m.ProjectionSeconds,
		m.BatchScenarios,
		m.SweepCells,
		m.TippingPoints,
	)

	return m
}
