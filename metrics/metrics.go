// Package metrics exposes the state of the streaming engine to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mapstream"

var (
	GeocodingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "geocoding",
		Name:      "requests_total",
		Help:      "Batched fragment requests sent to the geocoding service",
	}, []string{"outcome"})

	GeocodingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "geocoding",
		Name:      "request_duration_seconds",
		Help:      "Latency of batched fragment requests",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	FragmentsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "geocoding",
		Name:      "fragments_received_total",
		Help:      "Fragments resolved by the geocoding service, with or without geometry",
	}, []string{"kind"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Fragment cache lookups",
	}, []string{"result"})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Fragments evicted from the cache as least recently used",
	})

	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Fragments currently cached, known empty ones included",
	})

	PipelineFragments = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "fragments",
		Help:      "Fragment keys per pipeline state",
	}, []string{"state"})

	RegionsWaiting = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "regions_waiting",
		Help:      "Regions that wait for at least one fragment",
	})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "tick_duration_seconds",
		Help:      "Time spent in one tick of all pipeline stages",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	MicroTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "micro_tasks",
		Help:      "Reprojection tasks that have not finished yet",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
