/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicksTotal counts completed simulation ticks.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skysched_ticks_total",
		Help: "Completed simulation ticks.",
	})

	// AssignmentsTotal counts applied assignments, per site.
	AssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skysched_assignments_total",
		Help: "Assignments applied to the ledger.",
	}, []string{"site"})

	// InfeasibleSlotsTotal counts slots where the solver reported
	// infeasibility and nothing was scheduled.
	InfeasibleSlotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skysched_infeasible_slots_total",
		Help: "Slots abandoned after an infeasible solve.",
	})

	// JobsCompletedTotal counts jobs reaching their required time.
	JobsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skysched_jobs_completed_total",
		Help: "Jobs that reached completion during simulation.",
	})

	// SolverDuration observes wall time per solve.
	SolverDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skysched_solver_duration_seconds",
		Help:    "Wall time spent in the solver per slot.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	// ActiveRuns gauges simulations currently executing.
	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skysched_active_runs",
		Help: "Simulations currently executing.",
	})

	// HTTPRequestsTotal counts API requests.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skysched_http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "endpoint", "status"})

	// HTTPRequestDuration observes API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skysched_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	// APIActiveConnections gauges in-flight API requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skysched_api_active_connections",
		Help: "In-flight HTTP requests.",
	})

	// DatabaseQueryDuration observes GORM operation latency.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skysched_db_query_duration_seconds",
		Help:    "Database operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseErrorsTotal counts failed database operations.
	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skysched_db_errors_total",
		Help: "Failed database operations.",
	}, []string{"operation"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
