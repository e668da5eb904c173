package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/observability/logging"
	"ai-notebook/internal/observability/metrics"
)

// FileStore keeps one JSON file per fingerprint under a directory.
// Expired entries are removed when read; there is no background sweep.
// Distinct fingerprints never share a file, and writes go through a temp file
// plus rename, so concurrent writers cannot leave a torn entry behind.
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithClock overrides the time source. Tests use it to step past the TTL.
func WithClock(now func() time.Time) FileStoreOption {
	return func(s *FileStore) {
		s.now = now
	}
}

// NewFileStore creates the cache directory if needed and returns a store.
// A non-positive ttl selects DefaultTTL.
func NewFileStore(dir string, ttl time.Duration, opts ...FileStoreOption) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache dir cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	s := &FileStore{dir: dir, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the cached result for fingerprint unless it is absent or expired.
func (s *FileStore) Get(ctx context.Context, fingerprint string) (string, bool) {
	if err := entity.ValidateFingerprint(fingerprint); err != nil {
		logCacheError(ctx, "get", fingerprint, err)
		return "", false
	}

	path := s.path(fingerprint)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logCacheError(ctx, "get", fingerprint, err)
		}
		return "", false
	}

	entry, err := decodeRecord(fingerprint, data)
	if err != nil {
		logCacheError(ctx, "get", fingerprint, fmt.Errorf("decode entry: %w", err))
		return "", false
	}

	if entry.Expired(s.now(), s.ttl) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logCacheError(ctx, "evict", fingerprint, err)
		} else {
			metrics.RecordCacheEviction()
			logging.FromContext(ctx).DebugContext(ctx, "expired cache entry removed",
				slog.String("fingerprint", fingerprint),
				slog.Time("created_at", entry.CreatedAt))
		}
		return "", false
	}

	return entry.Result, true
}

// Put stores result under fingerprint, replacing any previous entry.
func (s *FileStore) Put(ctx context.Context, fingerprint, result string) {
	if err := entity.ValidateFingerprint(fingerprint); err != nil {
		logCacheError(ctx, "put", fingerprint, err)
		return
	}

	data, err := encodeRecord(result, s.now())
	if err != nil {
		logCacheError(ctx, "put", fingerprint, fmt.Errorf("encode entry: %w", err))
		return
	}

	if err := s.writeAtomic(fingerprint, data); err != nil {
		logCacheError(ctx, "put", fingerprint, err)
	}
}

func (s *FileStore) writeAtomic(fingerprint string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, fingerprint+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(fingerprint)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *FileStore) path(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+".json")
}
