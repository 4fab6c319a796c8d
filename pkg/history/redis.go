package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

const redisKeyPrefix = "ekaya-assist:chat"

// RedisStore keeps each thread in a Redis list of JSON messages with a sliding TTL.
type RedisStore struct {
	client       *redis.Client
	ttl          time.Duration
	maxPerThread int64
}

// NewRedisStore creates a store on client. ttl <= 0 keeps threads forever.
func NewRedisStore(client *redis.Client, ttl time.Duration, maxPerThread int) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, maxPerThread: int64(maxPerThread)}
}

var _ Store = (*RedisStore)(nil)

func redisKey(tenantID, threadID string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, tenantID, threadID)
}

func (s *RedisStore) Append(ctx context.Context, threadID, tenantID string, role models.ChatRole, content string) error {
	if err := validateKey(threadID, tenantID); err != nil {
		return err
	}

	data, err := json.Marshal(models.ChatMessage{Role: role, Content: content, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}

	key := redisKey(tenantID, threadID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		if s.maxPerThread > 0 {
			pipe.LTrim(ctx, key, -s.maxPerThread, -1)
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

func (s *RedisStore) Fetch(ctx context.Context, threadID, tenantID string, limit int) ([]models.ChatMessage, error) {
	if err := validateKey(threadID, tenantID); err != nil {
		return nil, err
	}

	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.client.LRange(ctx, redisKey(tenantID, threadID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch chat messages: %w", err)
	}

	msgs := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode chat message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
