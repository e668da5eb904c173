// Package cache stores completion results keyed by request fingerprint.
// Lookups and writes are best effort: failures are logged and reported as
// misses, never returned to the caller.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/observability/logging"
	"ai-notebook/internal/observability/metrics"
)

// DefaultTTL is how long a cached completion stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// record is the persisted form of an entry.
type record struct {
	// Timestamp is the creation time in unix seconds.
	Timestamp float64 `json:"timestamp"`
	Result    string  `json:"result"`
}

func encodeRecord(result string, now time.Time) ([]byte, error) {
	return json.Marshal(record{
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
		Result:    result,
	})
}

func decodeRecord(fingerprint string, data []byte) (entity.CacheEntry, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return entity.CacheEntry{}, err
	}
	sec, frac := math.Modf(rec.Timestamp)
	return entity.CacheEntry{
		Fingerprint: fingerprint,
		Result:      rec.Result,
		CreatedAt:   time.Unix(int64(sec), int64(frac*float64(time.Second))),
	}, nil
}

// logCacheError reports a recovered failure on the context logger.
func logCacheError(ctx context.Context, op, fingerprint string, err error) {
	cacheErr := &entity.CacheError{Op: op, Fingerprint: fingerprint, Err: err}
	metrics.RecordCacheError(op)
	logging.FromContext(ctx).WarnContext(ctx, "cache operation failed",
		slog.String("op", op),
		slog.String("fingerprint", fingerprint),
		slog.Any("error", cacheErr))
}
