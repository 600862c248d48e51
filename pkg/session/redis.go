package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/easyops/legalqa-go/pkg/core/errors"
	"github.com/easyops/legalqa-go/pkg/core/message"
	"github.com/redis/go-redis/v9"
)

// RedisStore Redis 会话存储
//
// 每个会话对应一个 Redis list，消息以 JSON 形式追加；
// 整个 key 带 TTL，服务重启后历史仍然可用。
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisStoreOption Redis 会话存储选项
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix 设置 key 前缀
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// WithTTL 设置会话过期时间
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore 创建 Redis 会话存储
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: "chat:session:",
		ttl:       time.Hour,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// key 返回会话对应的 Redis key
func (s *RedisStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

// History 返回会话的有序消息历史
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]message.Message, error) {
	items, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, errors.WrapError(err, "redis lrange")
	}

	msgs := make([]message.Message, 0, len(items))
	for _, item := range items {
		var msg message.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue // 跳过无效记录
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// Append 向会话历史追加消息
//
// 每次追加都会刷新整个会话 key 的过期时间。
func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...message.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return errors.WrapError(err, "marshal message")
		}
		values = append(values, data)
	}

	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.WrapError(err, "redis append")
	}
	return nil
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
