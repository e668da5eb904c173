// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Completion metrics track calls to the model provider
var (
	// CompletionRequestsTotal counts completion calls by provider and status
	CompletionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_completion_requests_total",
			Help: "Total number of completion calls sent to the model provider",
		},
		[]string{"provider", "status"},
	)

	// CompletionDuration measures completion call latency in seconds
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarizer_completion_duration_seconds",
			Help:    "Completion call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"provider"},
	)

	// CompletionsInFlight tracks completion calls holding a concurrency slot
	CompletionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "summarizer_completions_in_flight",
			Help: "Number of completion calls currently in flight",
		},
	)
)

// Cache metrics track the completion cache
var (
	// CacheRequestsTotal counts cache lookups by result
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_cache_requests_total",
			Help: "Total number of completion cache lookups",
		},
		[]string{"result"}, // result: hit, miss
	)

	// CacheEvictionsTotal counts entries removed on read after expiry
	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summarizer_cache_evictions_total",
			Help: "Total number of expired cache entries removed on read",
		},
	)

	// CacheErrorsTotal counts recovered cache failures by operation
	CacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_cache_errors_total",
			Help: "Total number of cache read or write failures",
		},
		[]string{"op"},
	)
)

// Pipeline metrics track whole summarization runs
var (
	// SummarizationsTotal counts pipeline runs by status
	SummarizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_runs_total",
			Help: "Total number of summarization runs",
		},
		[]string{"mode", "status"},
	)

	// SummarizationDuration measures end-to-end run time
	SummarizationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarizer_run_duration_seconds",
			Help:    "Time taken by one summarization run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// ChunksPerRun measures how many units were dispatched after pre-merge
	ChunksPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarizer_chunks_per_run",
			Help:    "Number of merged chunks dispatched per run",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		},
	)

	// MergeCallsTotal counts merge calls by status
	MergeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_merge_calls_total",
			Help: "Total number of merge calls",
		},
		[]string{"status"},
	)

	// MergeRounds measures how many reduction rounds a merge needed
	MergeRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarizer_merge_rounds",
			Help:    "Number of reduction rounds per merge",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
		},
	)
)
