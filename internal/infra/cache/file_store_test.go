package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFingerprint = "0cc175b9c0f1b6a831c399e269772661"

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestFileStore(t *testing.T) (*FileStore, *fakeClock, string) {
	t.Helper()
	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewFileStore(dir, DefaultTTL, WithClock(clock.Now))
	require.NoError(t, err)
	return store, clock, dir
}

func TestFileStore_PutThenGet(t *testing.T) {
	store, _, _ := newTestFileStore(t)
	ctx := context.Background()

	store.Put(ctx, testFingerprint, "summary text")

	got, ok := store.Get(ctx, testFingerprint)
	require.True(t, ok)
	assert.Equal(t, "summary text", got)
}

func TestFileStore_MissingEntry(t *testing.T) {
	store, _, _ := newTestFileStore(t)

	got, ok := store.Get(context.Background(), testFingerprint)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestFileStore_OnDiskFormat(t *testing.T) {
	store, clock, dir := newTestFileStore(t)

	store.Put(context.Background(), testFingerprint, "result")

	data, err := os.ReadFile(filepath.Join(dir, testFingerprint+".json"))
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "result", raw["result"])
	assert.Equal(t, float64(clock.Now().Unix()), raw["timestamp"])
	assert.Len(t, raw, 2)
}

func TestFileStore_ExpiredEntryIsEvicted(t *testing.T) {
	store, clock, dir := newTestFileStore(t)
	ctx := context.Background()

	store.Put(ctx, testFingerprint, "stale")

	clock.Advance(DefaultTTL)
	_, ok := store.Get(ctx, testFingerprint)
	assert.True(t, ok, "entry exactly at the TTL boundary is still valid")

	clock.Advance(time.Second)
	_, ok = store.Get(ctx, testFingerprint)
	assert.False(t, ok)

	_, err := os.Stat(filepath.Join(dir, testFingerprint+".json"))
	assert.True(t, os.IsNotExist(err), "expired entry should be removed on read")
}

func TestFileStore_OverwriteRefreshesTimestamp(t *testing.T) {
	store, clock, _ := newTestFileStore(t)
	ctx := context.Background()

	store.Put(ctx, testFingerprint, "first")
	clock.Advance(6 * 24 * time.Hour)
	store.Put(ctx, testFingerprint, "second")
	clock.Advance(2 * 24 * time.Hour)

	got, ok := store.Get(ctx, testFingerprint)
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestFileStore_CorruptEntryIsMiss(t *testing.T) {
	store, _, dir := newTestFileStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, testFingerprint+".json"), []byte("{not json"), 0o600))

	got, ok := store.Get(context.Background(), testFingerprint)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestFileStore_InvalidFingerprintIsIgnored(t *testing.T) {
	store, _, dir := newTestFileStore(t)
	ctx := context.Background()

	store.Put(ctx, "../escape", "x")
	_, ok := store.Get(ctx, "../escape")
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStore_WriteFailureIsSwallowed(t *testing.T) {
	store, _, dir := newTestFileStore(t)
	require.NoError(t, os.RemoveAll(dir))

	assert.NotPanics(t, func() {
		store.Put(context.Background(), testFingerprint, "lost")
	})
	_, ok := store.Get(context.Background(), testFingerprint)
	assert.False(t, ok)
}

func TestFileStore_ConcurrentDistinctWrites(t *testing.T) {
	store, _, dir := newTestFileStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Put(ctx, fmt.Sprintf("%032x", i), fmt.Sprintf("result-%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		got, ok := store.Get(ctx, fmt.Sprintf("%032x", i))
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("result-%d", i), got)
	}

	tmps, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmps, "no temp files should be left behind")
}

func TestFileStore_ConcurrentSameFingerprint(t *testing.T) {
	store, _, _ := newTestFileStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Put(ctx, testFingerprint, "deterministic")
			_, _ = store.Get(ctx, testFingerprint)
		}()
	}
	wg.Wait()

	got, ok := store.Get(ctx, testFingerprint)
	require.True(t, ok)
	assert.Equal(t, "deterministic", got)
}

func TestNewFileStore_Errors(t *testing.T) {
	_, err := NewFileStore("", time.Hour)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = NewFileStore(filepath.Join(file, "sub"), time.Hour)
	assert.Error(t, err)
}

func TestDecodeRecord_FractionalTimestamp(t *testing.T) {
	entry, err := decodeRecord("ab", []byte(`{"timestamp": 1700000000.5, "result": "r"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), entry.CreatedAt.Unix())
	assert.Equal(t, 500*time.Millisecond, time.Duration(entry.CreatedAt.Nanosecond()))
	assert.Equal(t, "r", entry.Result)
}
