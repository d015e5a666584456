package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Priya8975/subscription-reminders/internal/engine"
	"github.com/redis/go-redis/v9"
)

const dedupPrefix = "notified_"

// RedisDedupStore keeps dedup flags in Redis so they survive restarts and are
// shared between replicas. Flags never expire.
type RedisDedupStore struct {
	client *redis.Client
}

var _ engine.DedupStore = (*RedisDedupStore)(nil)

func NewRedisDedupStore(client *redis.Client) *RedisDedupStore {
	return &RedisDedupStore{client: client}
}

func (s *RedisDedupStore) Get(ctx context.Context, key string) (bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading dedup flag %s: %w", key, err)
	}
	return val == "1", nil
}

func (s *RedisDedupStore) Set(ctx context.Context, key string, value bool) error {
	var err error
	if value {
		err = s.client.Set(ctx, key, "1", 0).Err()
	} else {
		err = s.client.Del(ctx, key).Err()
	}
	if err != nil {
		return fmt.Errorf("writing dedup flag %s: %w", key, err)
	}
	return nil
}

// ClearSubscription drops every flag for one subscription so its next
// billing date is reminded afresh. Returns the number of keys removed.
func (s *RedisDedupStore) ClearSubscription(ctx context.Context, subscriptionID string) (int, error) {
	prefix := dedupPrefix + subscriptionID + "_"
	// The glob also matches ids that extend this one ("4" vs "4_1"), so only
	// keys ending in a bare offset belong to the subscription.
	return s.clear(ctx, dedupPrefix+escapeGlob(subscriptionID)+"_*", func(key string) bool {
		return isOffset(strings.TrimPrefix(key, prefix))
	})
}

// ClearAll drops every dedup flag.
func (s *RedisDedupStore) ClearAll(ctx context.Context) (int, error) {
	return s.clear(ctx, dedupPrefix+"*", nil)
}

func (s *RedisDedupStore) clear(ctx context.Context, pattern string, keep func(string) bool) (int, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if keep == nil || keep(iter.Val()) {
			keys = append(keys, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scanning dedup flags: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("deleting dedup flags: %w", err)
	}
	return int(n), nil
}

func isOffset(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
