package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for InvocationsTotal
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
	OutcomeRejected  = "rejected"
)

var (
	// Invocation metrics
	InvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagbridge_invocations_total",
			Help: "Total number of member invocations by thread mode, member kind and outcome",
		},
		[]string{"mode", "kind", "outcome"},
	)

	InvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagbridge_invocation_duration_seconds",
			Help:    "Member invocation duration in seconds by thread mode",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// Pub/sub metrics
	PublishesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tagbridge_publishes_total",
			Help: "Total number of publish calls",
		},
	)

	CacheReplaysTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tagbridge_cache_replays_total",
			Help: "Total number of cached values replayed to new subscribers",
		},
	)

	PrunedHandlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagbridge_pruned_handles_total",
			Help: "Total number of dead handles removed, by namespace",
		},
		[]string{"namespace"},
	)

	// Registry state, refreshed by the Collector
	DirectBindings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagbridge_direct_bindings",
			Help: "Number of direct tag bindings",
		},
	)

	SubscriberBindings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagbridge_subscriber_bindings",
			Help: "Number of subscriber handles across all tags",
		},
	)

	CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagbridge_cache_entries",
			Help: "Number of tags with a cached publish",
		},
	)

	// Queue metrics
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagbridge_worker_queue_depth",
			Help: "Invocations queued for the worker pool",
		},
	)

	LooperQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagbridge_looper_queue_depth",
			Help: "Invocations queued for the designated loop",
		},
	)
)

func init() {
	prometheus.MustRegister(InvocationsTotal)
	prometheus.MustRegister(InvocationDuration)
	prometheus.MustRegister(PublishesTotal)
	prometheus.MustRegister(CacheReplaysTotal)
	prometheus.MustRegister(PrunedHandlesTotal)
	prometheus.MustRegister(DirectBindings)
	prometheus.MustRegister(SubscriberBindings)
	prometheus.MustRegister(CacheEntries)
	prometheus.MustRegister(WorkerQueueDepth)
	prometheus.MustRegister(LooperQueueDepth)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
