package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/observability"
)

const historyKey = "aipk:history"

// RedisStore keeps the bounded history log in a Redis list so it survives
// process restarts.
type RedisStore struct {
	client *redis.Client
	limit  int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db, limit int) (*RedisStore, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, limit: limit}, nil
}

// Append pushes an item to the head of the list and trims to the limit.
func (s *RedisStore) Append(ctx context.Context, item domain.HistoryItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal history item: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, historyKey, payload)
	pipe.LTrim(ctx, historyKey, 0, int64(s.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history item: %w", err)
	}
	return nil
}

// List returns the stored items, newest first. Entries that no longer decode
// are skipped rather than failing the whole read.
func (s *RedisStore) List(ctx context.Context) ([]domain.HistoryItem, error) {
	raw, err := s.client.LRange(ctx, historyKey, 0, int64(s.limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	items := make([]domain.HistoryItem, 0, len(raw))
	for _, entry := range raw {
		var item domain.HistoryItem
		if err := json.Unmarshal([]byte(entry), &item); err != nil {
			observability.FromContext(ctx).Warn("skipping undecodable history entry",
				observability.Error(err),
			)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
