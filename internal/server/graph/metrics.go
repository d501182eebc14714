package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("biograph.graph")

var (
	// queriesTotal counts executed statements by kind and result
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biograph_store_queries_total",
		Help: "Statements executed against the graph store by kind and result",
	}, []string{"kind", "result"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "biograph_store_query_duration_seconds",
		Help:    "Statement execution time including materialization",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
	}, []string{"kind"})

	resultRows = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "biograph_store_result_rows",
		Help:    "Rows materialized per statement",
		Buckets: []float64{0, 1, 10, 100, 1000, 10000, 50000},
	}, []string{"kind"})

	truncatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biograph_store_truncated_total",
		Help: "Result sets cut at the row cap",
	}, []string{"kind"})

	sessionsInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "biograph_store_sessions_in_use",
		Help: "Open store sessions",
	})

	loadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biograph_store_loaded_total",
		Help: "Nodes and relations written by bulk load",
	}, []string{"entity"})
)
