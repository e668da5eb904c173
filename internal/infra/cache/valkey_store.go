package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"ai-notebook/internal/domain/entity"
)

// ValkeyStore persists completion results in a Valkey-compatible database.
// Expiry is delegated to the server through SET EX.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "completion"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

// DialValkey creates a client for addr and verifies it with PING.
// addr may be host:port or a redis:// / valkey:// URL.
func DialValkey(ctx context.Context, addr string) (valkey.Client, error) {
	opt := valkey.ClientOption{InitAddress: []string{addr}}
	if strings.Contains(addr, "://") {
		parsed, err := valkey.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse valkey url: %w", err)
		}
		opt = parsed
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey: %w", err)
	}
	return client, nil
}

// Get returns the cached result for fingerprint unless it is absent or expired.
func (s *ValkeyStore) Get(ctx context.Context, fingerprint string) (string, bool) {
	if err := entity.ValidateFingerprint(fingerprint); err != nil {
		logCacheError(ctx, "get", fingerprint, err)
		return "", false
	}

	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(fingerprint)).Build()).ToString()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			logCacheError(ctx, "get", fingerprint, err)
		}
		return "", false
	}

	entry, err := decodeRecord(fingerprint, []byte(payload))
	if err != nil {
		logCacheError(ctx, "get", fingerprint, fmt.Errorf("decode entry: %w", err))
		return "", false
	}
	return entry.Result, true
}

// Put stores result under fingerprint with the store TTL.
func (s *ValkeyStore) Put(ctx context.Context, fingerprint, result string) {
	if err := entity.ValidateFingerprint(fingerprint); err != nil {
		logCacheError(ctx, "put", fingerprint, err)
		return
	}

	data, err := encodeRecord(result, s.now())
	if err != nil {
		logCacheError(ctx, "put", fingerprint, fmt.Errorf("encode entry: %w", err))
		return
	}

	cmd := s.client.B().Set().Key(s.key(fingerprint)).Value(string(data)).Ex(s.ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		logCacheError(ctx, "put", fingerprint, err)
	}
}

func (s *ValkeyStore) key(fingerprint string) string {
	return fmt.Sprintf("%s:%s", s.prefix, fingerprint)
}

