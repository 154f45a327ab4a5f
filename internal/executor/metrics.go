package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querykit_executions_total",
			Help: "Statements executed, by dialect, statement kind and result",
		},
		[]string{"dialect", "kind", "result"},
	)

	executionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querykit_execution_duration_seconds",
			Help:    "Time spent executing a compiled statement",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"dialect", "kind"},
	)

	rowsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querykit_rows_returned",
			Help:    "Rows returned per statement",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"dialect", "kind"},
	)
)

const (
	resultSuccess = "success"
	resultError   = "error"
)
