package metrics

import (
	"time"
)

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordCompletion records one completion call and its latency.
func RecordCompletion(provider string, success bool, duration time.Duration) {
	CompletionRequestsTotal.WithLabelValues(provider, statusLabel(success)).Inc()
	CompletionDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCacheHit records a lookup served from the cache.
func RecordCacheHit() {
	CacheRequestsTotal.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a lookup that fell through to the model.
func RecordCacheMiss() {
	CacheRequestsTotal.WithLabelValues("miss").Inc()
}

// RecordCacheEviction records an expired entry removed on read.
func RecordCacheEviction() {
	CacheEvictionsTotal.Inc()
}

// RecordCacheError records a recovered cache failure.
// Op should be "get", "put" or "evict".
func RecordCacheError(op string) {
	CacheErrorsTotal.WithLabelValues(op).Inc()
}

// RecordSummarization records the outcome of one pipeline run.
func RecordSummarization(mode string, success bool, duration time.Duration) {
	SummarizationsTotal.WithLabelValues(mode, statusLabel(success)).Inc()
	SummarizationDuration.Observe(duration.Seconds())
}

// RecordChunksDispatched records the number of merged chunks in a run.
func RecordChunksDispatched(count int) {
	ChunksPerRun.Observe(float64(count))
}

// RecordMergeCall records one merge call.
func RecordMergeCall(success bool) {
	MergeCallsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordMergeRounds records the rounds needed by one merge.
func RecordMergeRounds(rounds int) {
	MergeRounds.Observe(float64(rounds))
}
