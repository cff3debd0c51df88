// Package metrics holds the Prometheus collectors shared by the portal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeEmpty      = "empty"
	OutcomeUnknownApp = "unknown_app"
	OutcomeDataAccess = "data_access_error"
	OutcomeQuery      = "query_error"
	OutcomeError      = "error"
	OutcomeRejected   = "rejected"
)

var (
	// QueriesTotal counts log queries by application and outcome
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logportal_queries_total",
		Help: "Total log queries by application and outcome",
	}, []string{"application", "outcome"})

	// QueryDuration tracks query latency including the liveness ping
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logportal_query_duration_seconds",
		Help:    "Log query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"application"})

	// QueryRows tracks result sizes
	QueryRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "logportal_query_rows",
		Help:    "Rows returned per log query",
		Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
	})

	// PoolsOpen is the number of open connection pools
	PoolsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logportal_db_pools_open",
		Help: "Open database connection pools",
	})

	// ExportsTotal counts spreadsheet exports by outcome
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logportal_exports_total",
		Help: "Total spreadsheet exports by outcome",
	}, []string{"outcome"})

	// EmailsTotal counts notification sends by outcome
	EmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logportal_emails_total",
		Help: "Total notification emails by outcome",
	}, []string{"outcome"})

	// ReloadsTotal counts runtime config reload attempts by outcome
	ReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logportal_config_reloads_total",
		Help: "Total runtime configuration reloads by outcome",
	}, []string{"outcome"})

	// HTTPRequestDuration tracks request latency by route and status
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logportal_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
