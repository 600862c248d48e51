// Package session 提供会话历史的存储
package session

import (
	"context"
	"time"

	"github.com/easyops/legalqa-go/pkg/core/message"
	"github.com/patrickmn/go-cache"
)

// Store 会话存储接口
//
// 同一 session id 的历史追加由调用方串行化；
// 本层假设每个会话同一时刻至多一个进行中的请求。
type Store interface {
	// History 返回会话的有序消息历史
	History(ctx context.Context, sessionID string) ([]message.Message, error)
	// Append 向会话历史追加消息
	Append(ctx context.Context, sessionID string, msgs ...message.Message) error
}

// CacheStore 进程内会话存储
//
// 基于带 TTL 的内存缓存，长驻进程中过期会话会被自动清理，
// 避免会话表无界增长。
type CacheStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewCacheStore 创建进程内会话存储
//
// ttl <= 0 时使用默认 1 小时；过期项每 10 分钟清理一次。
func NewCacheStore(ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CacheStore{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// History 返回会话的有序消息历史
func (s *CacheStore) History(ctx context.Context, sessionID string) ([]message.Message, error) {
	x, found := s.cache.Get(sessionID)
	if !found {
		return nil, nil
	}

	msgs := x.([]message.Message)
	result := make([]message.Message, len(msgs))
	copy(result, msgs)
	return result, nil
}

// Append 向会话历史追加消息
//
// 每次追加都会刷新会话的过期时间。
func (s *CacheStore) Append(ctx context.Context, sessionID string, msgs ...message.Message) error {
	var existing []message.Message
	if x, found := s.cache.Get(sessionID); found {
		existing = x.([]message.Message)
	}

	updated := make([]message.Message, 0, len(existing)+len(msgs))
	updated = append(updated, existing...)
	updated = append(updated, msgs...)

	s.cache.Set(sessionID, updated, s.ttl)
	return nil
}

// compile-time interface check
var _ Store = (*CacheStore)(nil)
